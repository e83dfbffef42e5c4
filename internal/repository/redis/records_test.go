package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

func newRecordsTest(t *testing.T) (*Records, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRecords(rdb, "cg:"), mr
}

func record(hash, sub string, now time.Time, ttl time.Duration) *auth.RefreshRecord {
	return &auth.RefreshRecord{
		TokenHash: hash,
		SubjectID: sub,
		ExpiresAt: now.Add(ttl).Truncate(time.Millisecond),
		CreatedAt: now.Truncate(time.Millisecond),
	}
}

func TestRecords_InsertFindDelete(t *testing.T) {
	s, mr := newRecordsTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	in := record("h1", "u1", now, time.Hour)
	require.NoError(t, s.Insert(ctx, in))
	require.Error(t, s.Insert(ctx, in))

	got, err := s.FindByToken(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.SubjectID)
	assert.True(t, in.ExpiresAt.Equal(got.ExpiresAt))
	assert.True(t, mr.TTL("cg:rt:h1") > 0)

	require.NoError(t, s.DeleteByToken(ctx, "h1"))
	require.NoError(t, s.DeleteByToken(ctx, "h1"))
	_, err = s.FindByToken(ctx, "h1")
	assert.ErrorIs(t, err, auth.ErrRecordNotFound)

	members, err := mr.Members("cg:sub:u1")
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestRecords_DeleteBySubject(t *testing.T) {
	s, _ := newRecordsTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, record("a", "u1", now, time.Hour)))
	require.NoError(t, s.Insert(ctx, record("b", "u1", now, time.Hour)))
	require.NoError(t, s.Insert(ctx, record("c", "u2", now, time.Hour)))

	require.NoError(t, s.DeleteBySubject(ctx, "u1"))
	require.NoError(t, s.DeleteBySubject(ctx, "u1"))

	_, err := s.FindByToken(ctx, "a")
	assert.ErrorIs(t, err, auth.ErrRecordNotFound)
	_, err = s.FindByToken(ctx, "c")
	assert.NoError(t, err)
}

func TestRecords_Sweep(t *testing.T) {
	s, _ := newRecordsTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, record("short", "u1", now, time.Minute)))
	require.NoError(t, s.Insert(ctx, record("long", "u1", now, 48*time.Hour)))
	require.NoError(t, s.Insert(ctx, record("other", "u2", now, time.Minute)))

	n, err := s.SweepExpired(ctx, "u1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.SweepAllExpired(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.FindByToken(ctx, "long")
	assert.NoError(t, err)
	_, err = s.FindByToken(ctx, "other")
	assert.ErrorIs(t, err, auth.ErrRecordNotFound)
}

func TestRecords_RotateIsSingleUse(t *testing.T) {
	s, _ := newRecordsTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, record("old", "u1", now, time.Hour)))

	require.NoError(t, s.Rotate(ctx, "old", record("new", "u1", now, time.Hour)))
	assert.ErrorIs(t, s.Rotate(ctx, "old", record("newer", "u1", now, time.Hour)), auth.ErrRecordNotFound)

	_, err := s.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, auth.ErrRecordNotFound)
	got, err := s.FindByToken(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.SubjectID)
	_, err = s.FindByToken(ctx, "newer")
	assert.ErrorIs(t, err, auth.ErrRecordNotFound)
}
