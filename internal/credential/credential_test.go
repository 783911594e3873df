package credential

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/report-generator/internal/repository"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("  seeded  ")
	v, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seeded", v)

	require.NoError(t, m.Set(ctx, " AIza-1 \n"))
	v, _ = m.Get(ctx)
	assert.Equal(t, "AIza-1", v)

	require.NoError(t, m.Clear(ctx))
	v, _ = m.Get(ctx)
	assert.Empty(t, v)
}

func newSQLStore(t *testing.T) (*SQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := NewSQL(repository.NewCredentialRepository(db, nil), nil)
	s.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestSQL_GetMissingIsEmpty(t *testing.T) {
	s, mock := newSQLStore(t)
	mock.ExpectQuery(`SELECT value FROM credentials`).
		WithArgs("gemini_api_key").
		WillReturnError(sql.ErrNoRows)

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_SetTrimsValue(t *testing.T) {
	s, mock := newSQLStore(t)
	mock.ExpectExec(`INSERT INTO credentials`).
		WithArgs("gemini_api_key", "AIza-2", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "  AIza-2 "))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_SetBlankClears(t *testing.T) {
	s, mock := newSQLStore(t)
	mock.ExpectExec(`DELETE FROM credentials`).
		WithArgs("gemini_api_key").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "   "))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_ErrorsAreWrapped(t *testing.T) {
	s, mock := newSQLStore(t)
	boom := errors.New("disk full")
	mock.ExpectQuery(`SELECT value FROM credentials`).WillReturnError(boom)

	_, err := s.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read credential")
}

type fakeKV struct {
	data   map[string]string
	getErr error
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{data: map[string]string{}}
	r := newRedis(kv, "reportgen:", nil)

	v, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, r.Set(ctx, " AIza-3 "))
	assert.Equal(t, "AIza-3", kv.data["reportgen:gemini_api_key"])

	v, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIza-3", v)

	require.NoError(t, r.Clear(ctx))
	assert.Empty(t, kv.data)
}

func TestRedis_GetError(t *testing.T) {
	r := newRedis(&fakeKV{data: map[string]string{}, getErr: errors.New("dial tcp: refused")}, "", nil)
	_, err := r.Get(context.Background())
	assert.ErrorContains(t, err, "dial tcp: refused")
}
