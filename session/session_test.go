package session

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, Entry) error     { return f.err }
func (f failingStore) Load(context.Context) (Analytics, error) { return Analytics{}, f.err }

func TestAccumulator_Record(t *testing.T) {
	ctx := context.Background()
	acc := NewAccumulator(nil)
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	acc.now = func() time.Time { return fixed }

	e1, err := acc.Record(ctx, "a.py", 3.2, 1.52)
	require.NoError(t, err)
	e2, err := acc.Record(ctx, "b.py", 10, 4.75)
	require.NoError(t, err)

	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Equal(t, fixed, e1.At)

	snap := acc.Snapshot()
	assert.InDelta(t, 13.2, snap.TotalEnergyKWH, 1e-9)
	assert.InDelta(t, 6.27, snap.TotalCO2Kg, 1e-9)
	require.Len(t, snap.History, 2)
	assert.Equal(t, "a.py", snap.History[0].File)
	assert.Equal(t, "b.py", snap.History[1].File)
}

func TestAccumulator_RecordRejectsInvalidValues(t *testing.T) {
	acc := NewAccumulator(nil)

	_, err := acc.Record(context.Background(), "a.py", -1, 0)
	assert.EqualError(t, err, "savings must be a non-negative number, got -1")

	_, err = acc.Record(context.Background(), "a.py", 1, -0.5)
	assert.EqualError(t, err, "co2 must be a non-negative number, got -0.5")

	assert.Empty(t, acc.Snapshot().History)
}

func TestAccumulator_StoreFailureLeavesStateUntouched(t *testing.T) {
	boom := errors.New("boom")
	acc := NewAccumulator(failingStore{err: boom})

	_, err := acc.Record(context.Background(), "a.py", 1, 1)
	assert.ErrorIs(t, err, boom)

	snap := acc.Snapshot()
	assert.Zero(t, snap.TotalEnergyKWH)
	assert.Zero(t, snap.TotalCO2Kg)
	assert.Empty(t, snap.History)
}

func TestAccumulator_SnapshotIsACopy(t *testing.T) {
	acc := NewAccumulator(nil)
	_, err := acc.Record(context.Background(), "a.py", 1, 0.475)
	require.NoError(t, err)

	snap := acc.Snapshot()
	snap.History[0].File = "mutated"
	snap.TotalEnergyKWH = 99

	again := acc.Snapshot()
	assert.Equal(t, "a.py", again.History[0].File)
	assert.Equal(t, 1.0, again.TotalEnergyKWH)
}

func TestAccumulator_ConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	acc := NewAccumulator(store)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := acc.Record(ctx, "f"+strconv.Itoa(w), 1, 0.5)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	snap := acc.Snapshot()
	assert.Equal(t, float64(workers*perWorker), snap.TotalEnergyKWH)
	assert.Equal(t, float64(workers*perWorker)*0.5, snap.TotalCO2Kg)
	assert.Len(t, snap.History, workers*perWorker)

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, stored)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := NewAccumulator(store)
	_, err := first.Record(ctx, "a.py", 2, 0.95)
	require.NoError(t, err)

	second, err := Restore(ctx, store)
	require.NoError(t, err)
	_, err = second.Record(ctx, "b.py", 1, 0.475)
	require.NoError(t, err)

	snap := second.Snapshot()
	assert.InDelta(t, 3, snap.TotalEnergyKWH, 1e-9)
	assert.Len(t, snap.History, 2)

	_, err = Restore(ctx, failingStore{err: errors.New("down")})
	assert.EqualError(t, err, "failed to load session: down")
}

func TestDecodeAnalytics(t *testing.T) {
	tests := []struct {
		name    string
		totals  map[string]string
		items   []string
		want    Analytics
		wantErr bool
	}{
		{
			name: "empty session",
			want: Analytics{History: []Entry{}},
		},
		{
			name:   "totals and history",
			totals: map[string]string{"energy_kwh": "3.5", "co2_kg": "1.6625"},
			items:  []string{`{"id":"42","file":"a.py","savings_kwh":3.5,"co2_kg":1.6625,"timestamp":"2026-10-18T09:30:00Z"}`},
			want: Analytics{
				TotalEnergyKWH: 3.5,
				TotalCO2Kg:     1.6625,
				History: []Entry{{
					ID: 42, File: "a.py", SavingsKWH: 3.5, CO2Kg: 1.6625,
					At: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
				}},
			},
		},
		{
			name:    "corrupt total",
			totals:  map[string]string{"energy_kwh": "lots"},
			wantErr: true,
		},
		{
			name:    "corrupt entry",
			items:   []string{`{"id":`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeAnalytics(tt.totals, tt.items)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// newRedisClient connects to ECOCODE_TEST_REDIS_URL when set, otherwise to an in-process server.
// The returned server is nil for a live connection.
func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	if url := os.Getenv("ECOCODE_TEST_REDIS_URL"); url != "" {
		opts, err := redis.ParseURL(url)
		require.NoError(t, err)
		return redis.NewClient(opts), nil
	}
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()}), srv
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedisClient(t)
	store := NewRedisStore(client, "test-"+strconv.FormatInt(time.Now().UnixNano(), 10), nil)
	t.Cleanup(func() {
		client.Del(ctx, store.totalsKey(), store.historyKey())
		_ = store.Close()
	})

	acc := NewAccumulator(store)
	_, err := acc.Record(ctx, "a.py", 2.5, 1.1875)
	require.NoError(t, err)
	_, err = acc.Record(ctx, "b.py", 1, 0.475)
	require.NoError(t, err)

	restored, err := Restore(ctx, store)
	require.NoError(t, err)
	snap := restored.Snapshot()
	assert.InDelta(t, 3.5, snap.TotalEnergyKWH, 1e-9)
	assert.InDelta(t, 1.6625, snap.TotalCO2Kg, 1e-9)
	require.Len(t, snap.History, 2)
	assert.Equal(t, acc.Snapshot().History[0].ID, snap.History[0].ID)
	assert.Equal(t, "b.py", snap.History[1].File)

	if srv != nil {
		assert.Equal(t, "3.5", srv.HGet(store.totalsKey(), fieldEnergy))
		items, err := srv.List(store.historyKey())
		require.NoError(t, err)
		assert.Len(t, items, 2)
	}
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("should leave the session untouched when the transaction fails", func(t *testing.T) {
		srv := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
		store := NewRedisStore(client, "failing", nil)
		t.Cleanup(func() { _ = store.Close() })

		acc := NewAccumulator(store)
		srv.SetError("LOADING Redis is loading the dataset in memory")
		_, err := acc.Record(ctx, "a.py", 1, 0.475)
		assert.ErrorContains(t, err, "append session entry")
		assert.Empty(t, acc.Snapshot().History)

		srv.SetError("")
		assert.False(t, srv.Exists(store.totalsKey()))
		assert.False(t, srv.Exists(store.historyKey()))
	})

	t.Run("should fail restore on corrupt history", func(t *testing.T) {
		srv := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		store := NewRedisStore(client, "corrupt", nil)
		t.Cleanup(func() { _ = store.Close() })

		_, err := srv.Push(store.historyKey(), `{"id":`)
		require.NoError(t, err)
		_, err = Restore(ctx, store)
		assert.Error(t, err)
	})
}
