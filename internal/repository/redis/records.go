package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

var (
	_ auth.RevocationStore = (*Records)(nil)
	_ auth.ExpiredSweeper  = (*Records)(nil)
)

var errDuplicateRecord = errors.New("refresh record already exists")

// Each record is a hash at <prefix>rt:<token hash> expiring with the token;
// <prefix>sub:<subject> is a set of the subject's token hashes.
const (
	insertScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "sub", ARGV[1], "exp", ARGV[2], "created", ARGV[3])
redis.call("PEXPIREAT", KEYS[1], ARGV[2])
redis.call("SADD", KEYS[2], ARGV[4])
return 1
`

	deleteScript = `
local sub = redis.call("HGET", KEYS[1], "sub")
redis.call("DEL", KEYS[1])
if sub then
  redis.call("SREM", ARGV[1] .. "sub:" .. sub, ARGV[2])
end
return 1
`

	deleteSubjectScript = `
local members = redis.call("SMEMBERS", KEYS[1])
for _, h in ipairs(members) do
  redis.call("DEL", ARGV[1] .. "rt:" .. h)
end
redis.call("DEL", KEYS[1])
return #members
`

	sweepSubjectScript = `
local members = redis.call("SMEMBERS", KEYS[1])
local now = tonumber(ARGV[2])
local n = 0
for _, h in ipairs(members) do
  local key = ARGV[1] .. "rt:" .. h
  local exp = redis.call("HGET", key, "exp")
  if not exp then
    redis.call("SREM", KEYS[1], h)
    n = n + 1
  elseif tonumber(exp) < now then
    redis.call("DEL", key)
    redis.call("SREM", KEYS[1], h)
    n = n + 1
  end
end
return n
`

	rotateScript = `
local sub = redis.call("HGET", KEYS[1], "sub")
if not sub then
  return 0
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return -1
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. "sub:" .. sub, ARGV[2])
redis.call("HSET", KEYS[2], "sub", ARGV[3], "exp", ARGV[4], "created", ARGV[5])
redis.call("PEXPIREAT", KEYS[2], ARGV[4])
redis.call("SADD", KEYS[3], ARGV[6])
return 1
`
)

var (
	insertLua        = redis.NewScript(insertScript)
	deleteLua        = redis.NewScript(deleteScript)
	deleteSubjectLua = redis.NewScript(deleteSubjectScript)
	sweepSubjectLua  = redis.NewScript(sweepSubjectScript)
	rotateLua        = redis.NewScript(rotateScript)
)

type Records struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRecords(rdb redis.UniversalClient, prefix string) *Records {
	return &Records{rdb: rdb, prefix: prefix}
}

func (s *Records) recordKey(hash string) string { return s.prefix + "rt:" + hash }
func (s *Records) subjectKey(sub string) string { return s.prefix + "sub:" + sub }

func millis(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) }

func (s *Records) Insert(ctx context.Context, rec *auth.RefreshRecord) error {
	res, err := insertLua.Run(ctx, s.rdb,
		[]string{s.recordKey(rec.TokenHash), s.subjectKey(rec.SubjectID)},
		rec.SubjectID, millis(rec.ExpiresAt), millis(rec.CreatedAt), rec.TokenHash,
	).Int64()
	if err != nil {
		return fmt.Errorf("insert refresh record: %w", err)
	}
	if res == 0 {
		return errDuplicateRecord
	}
	return nil
}

func (s *Records) FindByToken(ctx context.Context, tokenHash string) (*auth.RefreshRecord, error) {
	fields, err := s.rdb.HGetAll(ctx, s.recordKey(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("find refresh record: %w", err)
	}
	if len(fields) == 0 {
		return nil, auth.ErrRecordNotFound
	}
	exp, err := strconv.ParseInt(fields["exp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode refresh record exp: %w", err)
	}
	created, err := strconv.ParseInt(fields["created"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode refresh record created: %w", err)
	}
	return &auth.RefreshRecord{
		TokenHash: tokenHash,
		SubjectID: fields["sub"],
		ExpiresAt: time.UnixMilli(exp).UTC(),
		CreatedAt: time.UnixMilli(created).UTC(),
	}, nil
}

func (s *Records) DeleteByToken(ctx context.Context, tokenHash string) error {
	if err := deleteLua.Run(ctx, s.rdb, []string{s.recordKey(tokenHash)}, s.prefix, tokenHash).Err(); err != nil {
		return fmt.Errorf("delete refresh record: %w", err)
	}
	return nil
}

func (s *Records) DeleteBySubject(ctx context.Context, subjectID string) error {
	if err := deleteSubjectLua.Run(ctx, s.rdb, []string{s.subjectKey(subjectID)}, s.prefix).Err(); err != nil {
		return fmt.Errorf("delete subject refresh records: %w", err)
	}
	return nil
}

func (s *Records) SweepExpired(ctx context.Context, subjectID string, now time.Time) (int64, error) {
	n, err := sweepSubjectLua.Run(ctx, s.rdb, []string{s.subjectKey(subjectID)}, s.prefix, millis(now)).Int64()
	if err != nil {
		return 0, fmt.Errorf("sweep refresh records: %w", err)
	}
	return n, nil
}

// SweepAllExpired walks the subject index. Record hashes expire on their own;
// this mostly prunes dangling index entries.
func (s *Records) SweepAllExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	iter := s.rdb.Scan(ctx, 0, s.prefix+"sub:*", 200).Iterator()
	for iter.Next(ctx) {
		n, err := sweepSubjectLua.Run(ctx, s.rdb, []string{iter.Val()}, s.prefix, millis(now)).Int64()
		if err != nil {
			return total, fmt.Errorf("sweep refresh records: %w", err)
		}
		total += n
	}
	if err := iter.Err(); err != nil {
		return total, fmt.Errorf("scan subject index: %w", err)
	}
	return total, nil
}

func (s *Records) Rotate(ctx context.Context, oldHash string, next *auth.RefreshRecord) error {
	res, err := rotateLua.Run(ctx, s.rdb,
		[]string{s.recordKey(oldHash), s.recordKey(next.TokenHash), s.subjectKey(next.SubjectID)},
		s.prefix, oldHash, next.SubjectID, millis(next.ExpiresAt), millis(next.CreatedAt), next.TokenHash,
	).Int64()
	if err != nil {
		return fmt.Errorf("rotate refresh record: %w", err)
	}
	switch res {
	case 0:
		return auth.ErrRecordNotFound
	case -1:
		return errDuplicateRecord
	}
	return nil
}
