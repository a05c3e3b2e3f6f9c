package service

import (
	"context"
	"sync"

	"utkal-mart/internal/domain"
	"utkal-mart/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Phone]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Phone] = user
	return nil
}

func (m *mockUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	user, exists := m.users[phone]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// mockCartRepository keeps cart lines in memory. WithTx holds a single
// lock for the whole callback and applies writes only on success, which
// mirrors row locking plus rollback closely enough for service tests.
type mockCartRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	items    map[uuid.UUID]*domain.CartItem
	inserts  int
}

func newMockCartRepository(products ...*domain.Product) *mockCartRepository {
	m := &mockCartRepository{
		products: make(map[uuid.UUID]*domain.Product),
		items:    make(map[uuid.UUID]*domain.CartItem),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCartRepository) item(id uuid.UUID) *domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[id]; ok {
		clone := *item
		return &clone
	}
	return nil
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []*domain.CartItem{}
	for _, item := range m.items {
		if item.UserID == userID {
			clone := *item
			clone.Product = m.products[item.ProductID]
			items = append(items, &clone)
		}
	}
	return items, nil
}

func (m *mockCartRepository) FindByID(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return nil, repository.ErrCartItemNotFound
	}
	clone := *item
	return &clone, nil
}

func (m *mockCartRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return repository.ErrCartItemNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, item := range m.items {
		if item.UserID == userID {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *mockCartRepository) RefreshPrices(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		if p := m.products[item.ProductID]; p != nil && !p.Price.Equal(item.Price) {
			item.Price = p.Price
			n++
		}
	}
	return n, nil
}

func (m *mockCartRepository) WithTx(ctx context.Context, fn func(tx repository.CartTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mockCartTx{repo: m, staged: make(map[uuid.UUID]*domain.CartItem)}
	if err := fn(tx); err != nil {
		return err
	}

	for id, item := range tx.staged {
		clone := *item
		clone.Product = nil
		m.items[id] = &clone
	}
	m.inserts += tx.inserts
	return nil
}

type mockCartTx struct {
	repo    *mockCartRepository
	staged  map[uuid.UUID]*domain.CartItem
	inserts int
}

func (t *mockCartTx) lookup(match func(*domain.CartItem) bool) *domain.CartItem {
	for _, item := range t.staged {
		if match(item) {
			return item
		}
	}
	for _, item := range t.repo.items {
		if match(item) {
			clone := *item
			return &clone
		}
	}
	return nil
}

func (t *mockCartTx) LockProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	p, ok := t.repo.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (t *mockCartTx) LockItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error) {
	item := t.lookup(func(i *domain.CartItem) bool { return i.ID == itemID && i.UserID == userID })
	if item == nil {
		return nil, repository.ErrCartItemNotFound
	}
	return item, nil
}

func (t *mockCartTx) LockItemByProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error) {
	item := t.lookup(func(i *domain.CartItem) bool { return i.ProductID == productID && i.UserID == userID })
	if item == nil {
		return nil, repository.ErrCartItemNotFound
	}
	return item, nil
}

func (t *mockCartTx) Insert(ctx context.Context, item *domain.CartItem) error {
	if t.lookup(func(i *domain.CartItem) bool { return i.ProductID == item.ProductID && i.UserID == item.UserID }) != nil {
		return repository.ErrCartItemExists
	}
	t.staged[item.ID] = item
	t.inserts++
	return nil
}

func (t *mockCartTx) Update(ctx context.Context, item *domain.CartItem) error {
	if t.lookup(func(i *domain.CartItem) bool { return i.ID == item.ID && i.UserID == item.UserID }) == nil {
		return repository.ErrCartItemNotFound
	}
	t.staged[item.ID] = item
	return nil
}
