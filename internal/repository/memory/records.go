package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

var (
	_ auth.RevocationStore = (*Records)(nil)
	_ auth.ExpiredSweeper  = (*Records)(nil)
)

var errDuplicateRecord = errors.New("refresh record already exists")

// Records is a mutex-guarded revocation store.
type Records struct {
	mu     sync.Mutex
	byHash map[string]auth.RefreshRecord
}

func NewRecords() *Records {
	return &Records{byHash: make(map[string]auth.RefreshRecord)}
}

func (s *Records) Insert(_ context.Context, rec *auth.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(rec)
}

func (s *Records) insertLocked(rec *auth.RefreshRecord) error {
	if _, ok := s.byHash[rec.TokenHash]; ok {
		return errDuplicateRecord
	}
	s.byHash[rec.TokenHash] = *rec
	return nil
}

func (s *Records) FindByToken(_ context.Context, tokenHash string) (*auth.RefreshRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byHash[tokenHash]
	if !ok {
		return nil, auth.ErrRecordNotFound
	}
	return &rec, nil
}

func (s *Records) DeleteByToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byHash, tokenHash)
	return nil
}

func (s *Records) DeleteBySubject(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, rec := range s.byHash {
		if rec.SubjectID == subjectID {
			delete(s.byHash, h)
		}
	}
	return nil
}

func (s *Records) SweepExpired(_ context.Context, subjectID string, now time.Time) (int64, error) {
	return s.sweep(func(rec auth.RefreshRecord) bool {
		return rec.SubjectID == subjectID && rec.Expired(now)
	}), nil
}

func (s *Records) SweepAllExpired(_ context.Context, now time.Time) (int64, error) {
	return s.sweep(func(rec auth.RefreshRecord) bool { return rec.Expired(now) }), nil
}

func (s *Records) sweep(match func(auth.RefreshRecord) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for h, rec := range s.byHash {
		if match(rec) {
			delete(s.byHash, h)
			n++
		}
	}
	return n
}

func (s *Records) Rotate(_ context.Context, oldHash string, next *auth.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[oldHash]; !ok {
		return auth.ErrRecordNotFound
	}
	if _, ok := s.byHash[next.TokenHash]; ok {
		return errDuplicateRecord
	}
	delete(s.byHash, oldHash)
	return s.insertLocked(next)
}

// Len is the number of live records.
func (s *Records) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}
