package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeProduct struct {
	price decimal.Decimal
	stock int
}

// fakeStore is an in-memory cart API for one user
type fakeStore struct {
	mu       sync.Mutex
	token    string
	phone    string
	password string
	products map[string]fakeProduct
	items    []Item
	requests map[string]int
	failGet  bool
	onAdd    func()
	onGet    func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		token:    "valid-token",
		phone:    "9876543210",
		password: "secret123",
		products: make(map[string]fakeProduct),
		requests: make(map[string]int),
	}
}

func (f *fakeStore) addProduct(price string, stock int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.products[id] = fakeProduct{price: decimal.RequireFromString(price), stock: stock}
	return id
}

func (f *fakeStore) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method]
}

func (f *fakeStore) setFailGet(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = fail
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

func (f *fakeStore) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeStore) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.Method]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeStore) router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.countRequests)

	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Phone, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Phone != f.phone || body.Password != f.password {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Login successful",
			"token":   f.token,
			"user":    map[string]string{"id": uuid.NewString(), "role": "buyer"},
		})
	})

	r.Route("/api/buyer/cart", func(r chi.Router) {
		r.Use(f.authorized)
		r.Get("/", f.getCart)
		r.Post("/", f.addItem)
		r.Delete("/", f.clear)
		r.Post("/refresh-prices", f.getCart)
		r.Put("/{id}", f.updateItem)
		r.Delete("/{id}", f.removeItem)
	})

	return r
}

func (f *fakeStore) setOnGet(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onGet = hook
}

func (f *fakeStore) getCart(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hook := f.onGet
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failGet {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
		return
	}

	total := decimal.Zero
	count := 0
	for _, item := range f.items {
		total = total.Add(item.Subtotal())
		count += item.Quantity
	}

	items := f.items
	if items == nil {
		items = []Item{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":     items,
		"total":     total.StringFixed(2),
		"itemCount": count,
	})
}

func (f *fakeStore) setOnAdd(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onAdd = hook
}

func (f *fakeStore) addItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hook := f.onAdd
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[body.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Product not found or unavailable")
		return
	}

	for i := range f.items {
		if f.items[i].ProductID == body.ProductID {
			if f.items[i].Quantity+body.Quantity > product.stock {
				writeError(w, http.StatusBadRequest, "insufficient_stock", "Cannot add more than available stock")
				return
			}
			f.items[i].Quantity += body.Quantity
			writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Cart updated successfully", "item": f.items[i]})
			return
		}
	}

	if body.Quantity > product.stock {
		writeError(w, http.StatusBadRequest, "insufficient_stock", "Not enough stock available")
		return
	}

	item := Item{ID: uuid.NewString(), ProductID: body.ProductID, Quantity: body.Quantity, Price: product.price}
	f.items = append(f.items, item)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Item added to cart", "item": item})
}

func (f *fakeStore) updateItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range f.items {
		if f.items[i].ID == id {
			if body.Quantity > f.products[f.items[i].ProductID].stock {
				writeError(w, http.StatusBadRequest, "insufficient_stock", "Not enough stock available")
				return
			}
			f.items[i].Quantity = body.Quantity
			writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Cart item updated", "item": f.items[i]})
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "Cart item not found")
}

func (f *fakeStore) removeItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "Cart item not found")
}

func (f *fakeStore) clear(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared successfully"})
}

// recordingNotifier keeps every alert it receives
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *recordingNotifier) Alert(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, title+": "+message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

type fixture struct {
	store    *fakeStore
	server   *httptest.Server
	client   *Client
	notifier *recordingNotifier
	session  *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	server := httptest.NewServer(store.router())
	client := NewClient(server.URL+"/", 0, testLogger)
	notifier := &recordingNotifier{}

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	return &fixture{
		store:    store,
		server:   server,
		client:   client,
		notifier: notifier,
		session:  New(client, notifier, testLogger),
	}
}

func hasPrefix(alerts []string, prefix string) bool {
	for _, a := range alerts {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}
