package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

const (
	alertError = "Error"
	alertLogin = "Login Required"
)

// Session is the client-side view of one user's cart. Every mutation is
// sent to the server and followed by a full refetch; local state is only
// ever replaced by a successful fetch. The processing marker is advisory
// and does not serialize mutations on the same item.
type Session struct {
	client   *Client
	notifier Notifier
	logger   *zap.Logger

	mu    sync.Mutex
	token string
	state Snapshot
}

// New creates a session with empty state and no token
func New(client *Client, notifier Notifier, logger *zap.Logger) *Session {
	if notifier == nil {
		notifier = NotifierFunc(func(string, string) {})
	}

	return &Session{
		client:   client,
		notifier: notifier,
		logger:   logger,
		state:    emptySnapshot(),
	}
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the bearer token in use, or "" when logged out
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken installs a new token. Gaining a token fetches the cart,
// losing it clears local state without a request.
func (s *Session) SetToken(ctx context.Context, token string) (Snapshot, error) {
	s.mu.Lock()
	previous := s.token
	s.token = token
	if token == "" {
		s.state = emptySnapshot()
	}
	snap := s.state
	s.mu.Unlock()

	if token == "" || token == previous {
		return snap, nil
	}
	return s.FetchCart(ctx)
}

// Login obtains a token for phone and password and loads the cart
func (s *Session) Login(ctx context.Context, phone, password string) (Snapshot, error) {
	token, err := s.client.Login(ctx, phone, password)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.SetToken(ctx, token)
}

// FetchCart replaces local state with the server cart. On failure the
// error is recorded and the previous items are kept.
func (s *Session) FetchCart(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	token := s.token
	if token == "" {
		s.state = emptySnapshot()
		snap := s.state
		s.mu.Unlock()
		return snap, nil
	}
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	cart, err := s.client.GetCart(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A logout or token switch while the request was in flight wins
	if s.token != token {
		return s.state, err
	}

	s.state.Loading = false
	if err != nil {
		s.logger.Warn("Failed to fetch cart", zap.Error(err))
		s.state.Error = errorMessage(err, "An unknown error occurred")
		return s.state, err
	}

	items := cart.Items
	if items == nil {
		items = []Item{}
	}
	s.state.Items = items
	s.state.Total = cart.Total
	s.state.ItemCount = cart.ItemCount
	return s.state, nil
}

// AddToCart adds one unit of productID. Without a token the user is
// asked to log in and no request is made.
func (s *Session) AddToCart(ctx context.Context, productID string) (Snapshot, error) {
	token := s.Token()
	if token == "" {
		s.notifier.Alert(alertLogin, ErrLoginRequired.Message)
		return s.Snapshot(), ErrLoginRequired
	}

	return s.mutate(ctx, productID, "Failed to add item to cart", func() error {
		return s.client.AddItem(ctx, token, productID, 1)
	})
}

// UpdateCartItemQuantity sets an absolute quantity. Quantities below 1
// are rejected without a request.
func (s *Session) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) (Snapshot, error) {
	token := s.Token()
	if token == "" {
		return s.Snapshot(), ErrLoginRequired
	}
	if quantity < 1 {
		return s.Snapshot(), ErrInvalidQuantity
	}

	return s.mutate(ctx, itemID, "Failed to update item quantity", func() error {
		return s.client.UpdateItem(ctx, token, itemID, quantity)
	})
}

// RemoveFromCart deletes one line
func (s *Session) RemoveFromCart(ctx context.Context, itemID string) (Snapshot, error) {
	token := s.Token()
	if token == "" {
		return s.Snapshot(), ErrLoginRequired
	}

	return s.mutate(ctx, itemID, "Failed to remove item from cart", func() error {
		return s.client.RemoveItem(ctx, token, itemID)
	})
}

// ClearCart deletes every line
func (s *Session) ClearCart(ctx context.Context) (Snapshot, error) {
	token := s.Token()
	if token == "" {
		return s.Snapshot(), ErrLoginRequired
	}

	s.setLoading(true)
	_, err := s.mutate(ctx, "", "Failed to clear cart", func() error {
		return s.client.Clear(ctx, token)
	})
	s.setLoading(false)

	return s.Snapshot(), err
}

// RefreshPrices asks the server to re-price every line and refetches
func (s *Session) RefreshPrices(ctx context.Context) (Snapshot, error) {
	token := s.Token()
	if token == "" {
		return s.Snapshot(), ErrLoginRequired
	}

	return s.mutate(ctx, "", "Failed to refresh prices", func() error {
		_, err := s.client.RefreshPrices(ctx, token)
		return err
	})
}

// mutate marks id as processing, runs call and refetches on success.
// A failed refetch after a successful mutation is reported through
// Snapshot.Error, not as a mutation failure.
func (s *Session) mutate(ctx context.Context, id, fallback string, call func() error) (Snapshot, error) {
	if id != "" {
		s.setProcessing(id)
	}

	err := call()
	if err == nil {
		s.FetchCart(ctx)
	}

	if id != "" {
		s.clearProcessing(id)
	}

	if err != nil {
		s.logger.Debug("Cart mutation failed", zap.String("item_id", id), zap.Error(err))
		s.notifier.Alert(alertError, alertMessage(err, fallback))
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

func (s *Session) setProcessing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ProcessingItemID = id
}

// clearProcessing leaves a marker set by a later mutation in place
func (s *Session) clearProcessing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ProcessingItemID == id {
		s.state.ProcessingItemID = ""
	}
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = loading
}

// alertMessage prefers the message sent by the server
func alertMessage(err error, fallback string) string {
	var cartErr *CartError
	if errors.As(err, &cartErr) && cartErr.Status != 0 && cartErr.Message != "" {
		return cartErr.Message
	}
	return fallback
}

func errorMessage(err error, fallback string) string {
	var cartErr *CartError
	if errors.As(err, &cartErr) && cartErr.Message != "" {
		return cartErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
