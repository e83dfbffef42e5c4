package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NordCoder/Credgate/internal/domain/user"
)

var (
	_ user.Directory = (*Users)(nil)
	_ user.Lister    = (*Users)(nil)
)

// Users is a process-local user directory.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]*user.User
	byEmail map[string]string
}

func NewUsers() *Users {
	return &Users{
		byID:    make(map[string]*user.User),
		byEmail: make(map[string]string),
	}
}

func (s *Users) Insert(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Users) FindByID(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return nil, user.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *Users) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	t := at
	u.LastLogin = &t
	u.UpdatedAt = at
	return nil
}

func (s *Users) List(_ context.Context, limit, offset int) ([]*user.User, error) {
	s.mu.RLock()
	all := make([]*user.User, 0, len(s.byID))
	for _, u := range s.byID {
		cp := *u
		all = append(all, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// SetActive toggles the active flag. The HTTP surface has no deactivation
// endpoint; this is used by seeding and tests.
func (s *Users) SetActive(id string, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if ok {
		u.IsActive = active
	}
	return ok
}
