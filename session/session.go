// Package session keeps the cumulative impact of the analyses run in a session.
package session

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/omegabytes/ecocode-sentinel/id"
)

// Entry is one analysed file in the session history.
type Entry struct {
	ID         int64     `json:"id,string"`
	File       string    `json:"file"`
	SavingsKWH float64   `json:"savings_kwh"`
	CO2Kg      float64   `json:"co2_kg"`
	At         time.Time `json:"timestamp"`
}

// Analytics is the running total of energy saved and CO2 reduced, plus the ordered history.
type Analytics struct {
	TotalEnergyKWH float64 `json:"total_energy_kwh"`
	TotalCO2Kg     float64 `json:"total_co2_kg"`
	History        []Entry `json:"history"`
}

func (a Analytics) clone() Analytics {
	out := a
	out.History = append([]Entry(nil), a.History...)
	return out
}

func (a *Analytics) apply(e Entry) {
	a.TotalEnergyKWH += e.SavingsKWH
	a.TotalCO2Kg += e.CO2Kg
	a.History = append(a.History, e)
}

// Store persists session updates. Append must apply the totals and the history entry as one unit.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Load(ctx context.Context) (Analytics, error)
}

// Accumulator owns a session's analytics. Each Record is applied atomically, so concurrent
// analyses never interleave partial totals.
type Accumulator struct {
	mu    sync.Mutex
	store Store
	state Analytics
	now   func() time.Time
}

// NewAccumulator returns an empty accumulator writing through to store. A nil store keeps state in memory only.
func NewAccumulator(store Store) *Accumulator {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Accumulator{store: store, now: time.Now}
}

// Restore returns an accumulator seeded with what store already holds.
func Restore(ctx context.Context, store Store) (*Accumulator, error) {
	a := NewAccumulator(store)
	state, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	a.state = state.clone()
	return a, nil
}

// Record adds the savings of one analysed file to the session totals and appends it to the history.
func (a *Accumulator) Record(ctx context.Context, file string, savingsKWH, co2Kg float64) (Entry, error) {
	if savingsKWH < 0 || math.IsNaN(savingsKWH) || math.IsInf(savingsKWH, 0) {
		return Entry{}, fmt.Errorf("savings must be a non-negative number, got %v", savingsKWH)
	}
	if co2Kg < 0 || math.IsNaN(co2Kg) || math.IsInf(co2Kg, 0) {
		return Entry{}, fmt.Errorf("co2 must be a non-negative number, got %v", co2Kg)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	e := Entry{
		ID:         id.New(),
		File:       file,
		SavingsKWH: savingsKWH,
		CO2Kg:      co2Kg,
		At:         a.now().UTC(),
	}
	if err := a.store.Append(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("failed to persist session entry: %w", err)
	}
	a.state.apply(e)
	return e, nil
}

// Snapshot returns a copy of the current analytics.
func (a *Accumulator) Snapshot() Analytics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.clone()
}

// MemoryStore is a Store that keeps everything in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state Analytics
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.apply(e)
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (Analytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone(), nil
}
