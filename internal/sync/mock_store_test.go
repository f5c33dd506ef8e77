package sync

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/routelab/hoptrace/internal/model"
	"github.com/routelab/hoptrace/internal/store"
)

// mockStore is an in-memory store.Store for export and scheduler tests.
type mockStore struct {
	mu       sync.Mutex
	traces   map[string]*model.TraceRecord
	counters map[string]*model.ModuleCounter
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		traces:   make(map[string]*model.TraceRecord),
		counters: make(map[string]*model.ModuleCounter),
	}
}

func (m *mockStore) SaveTrace(_ context.Context, rec *model.TraceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.traces[rec.ID] = &cp
	return nil
}

func (m *mockStore) GetTrace(_ context.Context, id string) (*model.TraceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.traces[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rec, nil
}

func (m *mockStore) ListTraces(_ context.Context, filter model.TraceFilter) ([]*model.TraceRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TraceRecord
	for _, rec := range m.traces {
		if filter.Module != "" && rec.Module != filter.Module {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, len(out), nil
}

func (m *mockStore) DeleteTracesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.traces {
		if rec.CompletedAt.Before(cutoff) {
			delete(m.traces, id)
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CountTraces(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.traces), nil
}

func (m *mockStore) BumpModuleCounter(_ context.Context, module string, chains, traces int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[module]
	if !ok {
		c = &model.ModuleCounter{Module: module}
		m.counters[module] = c
	}
	c.Chains += chains
	c.Traces += traces
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockStore) GetModuleCounter(_ context.Context, module string) (*model.ModuleCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[module]
	if !ok {
		return &model.ModuleCounter{Module: module}, nil
	}
	return c, nil
}

func (m *mockStore) ListModuleCounters(_ context.Context) ([]model.ModuleCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ModuleCounter, 0, len(m.counters))
	for _, c := range m.counters {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
