package customer

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu        sync.RWMutex
	customers map[int64]Customer
	byNIC     map[string]int64
	maxID     int64
}

// NewMemoryRepository builds an in-memory customer store for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		customers: make(map[int64]Customer),
		byNIC:     make(map[string]int64),
	}
}

func (r *memoryRepository) Create(_ context.Context, c Customer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byNIC[c.NIC]; exists {
		return 0, ErrNICTaken
	}

	id := BaseID
	if len(r.customers) > 0 {
		id = r.maxID + 1
	}

	now := time.Now().UTC()
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	r.customers[id] = c
	r.byNIC[c.NIC] = id
	r.maxID = id
	return id, nil
}

func (r *memoryRepository) ExistsByNIC(_ context.Context, nic string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byNIC[nic]
	return ok, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return c, nil
}

func (r *memoryRepository) UpdatePINHash(_ context.Context, id int64, pinHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return ErrCustomerNotFound
	}
	c.PINHash = pinHash
	c.UpdatedAt = time.Now().UTC()
	r.customers[id] = c
	return nil
}
