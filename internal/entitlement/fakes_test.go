package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/models"
)

// memoryLedger is an insert-if-absent ledger guarded by a mutex.
type memoryLedger struct {
	mu   sync.Mutex
	keys map[string]int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{keys: make(map[string]int)}
}

func (l *memoryLedger) HasUsed(_ context.Context, key identity.Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keys[key.String()] > 0, nil
}

func (l *memoryLedger) RecordUse(_ context.Context, key identity.Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.keys[key.String()] > 0 {
		return false, nil
	}
	l.keys[key.String()] = 1
	return true, nil
}

func (l *memoryLedger) records(key identity.Key) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keys[key.String()]
}

// memoryProfiles implements ProfileReader, UsageStore and PlanStore.
type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func newMemoryProfiles(profiles ...*models.Profile) *memoryProfiles {
	m := &memoryProfiles{profiles: make(map[string]*models.Profile)}
	for _, p := range profiles {
		m.profiles[p.Email] = p
	}
	return m
}

func (m *memoryProfiles) GetProfile(_ context.Context, account string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[account]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memoryProfiles) IncrementUsage(_ context.Context, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[account]; ok {
		p.GenerationsUsed++
	}
	return nil
}

func (m *memoryProfiles) ActivatePlan(_ context.Context, account string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[account]
	if !ok {
		return false, nil
	}
	p.Tier = models.TierPaid
	p.GenerationsUsed = 0
	p.SubscribedOn = &at
	return true, nil
}
