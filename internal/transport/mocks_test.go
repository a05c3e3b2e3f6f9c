package transport

import (
	"context"

	"utkal-mart/internal/domain"
	"utkal-mart/internal/repository"

	"github.com/google/uuid"
)

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

// stubCartService returns canned results and records the last call
type stubCartService struct {
	cart    *domain.Cart
	item    *domain.CartItem
	created bool
	err     error

	lastUserID   uuid.UUID
	lastItemID   uuid.UUID
	lastQuantity int
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	s.lastUserID = userID
	return s.cart, s.err
}

func (s *stubCartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, bool, error) {
	s.lastUserID, s.lastQuantity = userID, quantity
	return s.item, s.created, s.err
}

func (s *stubCartService) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	s.lastUserID, s.lastItemID, s.lastQuantity = userID, itemID, quantity
	return s.item, s.err
}

func (s *stubCartService) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error {
	s.lastUserID, s.lastItemID = userID, itemID
	return s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	s.lastUserID = userID
	return s.err
}

func (s *stubCartService) RefreshPrices(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	s.lastUserID = userID
	return s.cart, s.err
}
