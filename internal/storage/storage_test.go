package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashkirian/repair-order-pipeline/internal/config"
	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

func testRecords() []models.Record {
	return []models.Record{
		{
			OrderID:    "A1",
			DateTime:   "2023-08-01 08:00:00",
			ObservedAt: time.Date(2023, 8, 1, 8, 30, 0, 0, time.UTC),
			Status:     "In Progress",
			Cost:       100.5,
			Technician: "Jane Smith",
			Parts:      []models.Part{{Name: "Brake Pad", Quantity: 2}},
		},
		{
			OrderID:    "B2",
			DateTime:   "2023-08-01 09:00:00",
			ObservedAt: time.Date(2023, 8, 1, 9, 15, 0, 0, time.UTC),
			Status:     "Completed",
			Cost:       42,
			Technician: "John Doe",
			Parts:      []models.Part{},
		},
	}
}

func TestInMemoryStorage_Save(t *testing.T) {
	s := NewInMemoryStorage()
	require.NoError(t, s.Save(context.Background(), testRecords()))
	require.NoError(t, s.Save(context.Background(), testRecords()[:1]))

	got := s.Records()
	require.Len(t, got, 3)
	assert.Equal(t, "A1", got[0].OrderID)
	assert.Equal(t, "B2", got[1].OrderID)
	assert.Equal(t, "A1", got[2].OrderID)
	assert.NoError(t, s.Close())
}

func TestInMemoryStorage_CanceledContext(t *testing.T) {
	s := NewInMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Save(ctx, testRecords())
	assert.ErrorIs(t, err, models.ErrDatabase)
	assert.Empty(t, s.Records())
}

func TestInMemoryStorage_Concurrency(t *testing.T) {
	s := NewInMemoryStorage()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = s.Save(context.Background(), testRecords()[:1])
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.Records(), 1000)
}

func TestSQLiteStorage_Save(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "repair_orders.db")
	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, testRecords()))
	rows, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{OrderID: "A1", DateTime: "2023-08-01 08:00:00", Status: "In Progress", Cost: 100.5, Technician: "Jane Smith", Parts: `[["Brake Pad",2]]`},
		{OrderID: "B2", DateTime: "2023-08-01 09:00:00", Status: "Completed", Cost: 42, Technician: "John Doe", Parts: "[]"},
	}, rows)
	require.NoError(t, s.Close())

	// Reopening keeps the table and appends.
	s, err = NewSQLiteStorage(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(ctx, testRecords()))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSQLiteStorage_SaveNothing(t *testing.T) {
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(context.Background(), nil))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStorage_ClosedDatabase(t *testing.T) {
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Save(context.Background(), testRecords()), models.ErrDatabase)
}

func TestSQLiteStorage_BadPath(t *testing.T) {
	_, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.ErrorIs(t, err, models.ErrDatabase)
}

func TestRedisStorage_Save(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStorage(mr.Addr(), "", 0, "repair_orders")
	defer s.Close()

	records := testRecords()
	require.NoError(t, s.Save(context.Background(), records))
	require.NoError(t, s.Save(context.Background(), records[:1]))

	values, err := mr.List("repair_orders")
	require.NoError(t, err)
	require.Len(t, values, len(records)+1)

	want := make([]Row, 0, len(values))
	for _, r := range append(records, records[0]) {
		want = append(want, NewRow(r))
	}
	got := make([]Row, 0, len(values))
	for _, v := range values {
		var row Row
		require.NoError(t, json.Unmarshal([]byte(v), &row))
		got = append(got, row)
	}
	assert.Equal(t, want, got)
	assert.JSONEq(t, `{"order_id":"A1","date_time":"2023-08-01 08:00:00","status":"In Progress","cost":100.5,"technician":"Jane Smith","parts":"[[\"Brake Pad\",2]]"}`, values[0])
}

func TestRedisStorage_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	s := NewRedisStorageWithClient(client, "repair_orders")
	defer s.Close()
	err := s.Save(context.Background(), testRecords())
	assert.ErrorIs(t, err, models.ErrDatabase)
	assert.NoError(t, s.Save(context.Background(), nil))
}

func TestNew(t *testing.T) {
	s, err := New(config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStorage{}, s)

	s, err = New(config.StorageConfig{Driver: config.DriverSQLite, SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db")}})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStorage{}, s)
	assert.NoError(t, s.Close())

	s, err = New(config.StorageConfig{Driver: config.DriverRedis, Redis: config.RedisConfig{Addr: "127.0.0.1:1", Key: "k"}})
	require.NoError(t, err)
	assert.IsType(t, &RedisStorage{}, s)
	assert.NoError(t, s.Close())

	_, err = New(config.StorageConfig{Driver: "csv"})
	assert.Error(t, err)
}
