// Package memstore is an in-memory store.Store for tests. It enforces the
// same unique keys and conditional writes as the MySQL schema.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

type data struct {
	seq           map[string]int64
	users         map[int64]models.User
	categories    map[int64]models.Category
	meals         map[int64]models.Meal
	carts         map[int64]models.Cart
	cartItems     map[int64]models.CartItem
	orders        map[int64]models.Order
	orderItems    map[int64]models.OrderItem
	addresses     map[int64]models.Address
	notifications map[int64]models.Notification
	chats         []models.ChatHistory
}

func newData() *data {
	return &data{
		seq:           map[string]int64{},
		users:         map[int64]models.User{},
		categories:    map[int64]models.Category{},
		meals:         map[int64]models.Meal{},
		carts:         map[int64]models.Cart{},
		cartItems:     map[int64]models.CartItem{},
		orders:        map[int64]models.Order{},
		orderItems:    map[int64]models.OrderItem{},
		addresses:     map[int64]models.Address{},
		notifications: map[int64]models.Notification{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.seq {
		c.seq[k] = v
	}
	copyMap(c.users, d.users)
	copyMap(c.categories, d.categories)
	copyMap(c.meals, d.meals)
	copyMap(c.carts, d.carts)
	copyMap(c.cartItems, d.cartItems)
	copyMap(c.orders, d.orders)
	copyMap(c.orderItems, d.orderItems)
	copyMap(c.addresses, d.addresses)
	copyMap(c.notifications, d.notifications)
	c.chats = append([]models.ChatHistory(nil), d.chats...)
	return c
}

func copyMap[V any](dst, src map[int64]V) {
	for k, v := range src {
		dst[k] = v
	}
}

func (d *data) next(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

// Store is safe for concurrent use. Transactions are serialized with each
// other; a failed transaction restores the state it started from.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	d    *data

	failures map[string][]error
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{d: newData(), failures: map[string][]error{}}
}

// FailNext makes the next call of the named method return err. Calls queue
// up, so FailNext("CreateOrder", a); FailNext("CreateOrder", b) fails twice.
func (s *Store) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], err)
}

// lock takes the state lock and pops an injected failure for method. The
// caller unlocks whether or not an error comes back.
func (s *Store) lock(method string) error {
	s.mu.Lock()
	if queued := s.failures[method]; len(queued) > 0 {
		s.failures[method] = queued[1:]
		return queued[0]
	}
	return nil
}

// WithTx implements store.Store.
func (s *Store) WithTx(ctx context.Context, fn func(q store.Queries) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

//
// --- Users ---
//

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	err := s.lock("CreateUser")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, existing := range s.d.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrConflict
		}
	}
	now := time.Now()
	u.ID = s.d.next("users")
	u.CreatedAt, u.UpdatedAt = now, now
	s.d.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	err := s.lock("GetUser")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	u, ok := s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	err := s.lock("GetUserByEmail")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, u := range s.d.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SetStripeCustomerID(_ context.Context, userID int64, customerID string) error {
	err := s.lock("SetStripeCustomerID")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	u, ok := s.d.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.StripeCustomerID = &customerID
	u.UpdatedAt = time.Now()
	s.d.users[userID] = u
	return nil
}

//
// --- Catalog ---
//

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	err := s.lock("CreateCategory")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, existing := range s.d.categories {
		if existing.Slug == c.Slug {
			return store.ErrConflict
		}
	}
	now := time.Now()
	c.ID = s.d.next("categories")
	c.CreatedAt, c.UpdatedAt = now, now
	s.d.categories[c.ID] = *c
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	err := s.lock("ListCategories")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(s.d.categories))
	for _, c := range s.d.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) CreateMeal(_ context.Context, m *models.Meal) error {
	err := s.lock("CreateMeal")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	if _, ok := s.d.categories[m.CategoryID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range s.d.meals {
		if existing.Slug == m.Slug {
			return store.ErrConflict
		}
	}
	now := time.Now()
	m.ID = s.d.next("meals")
	m.CreatedAt, m.UpdatedAt = now, now
	m.CategoryName = ""
	s.d.meals[m.ID] = *m
	m.CategoryName = s.d.categories[m.CategoryID].Name
	return nil
}

// withCategory fills the joined category name.
func (s *Store) withCategory(m models.Meal) models.Meal {
	m.CategoryName = s.d.categories[m.CategoryID].Name
	return m
}

func (s *Store) GetMeal(_ context.Context, id int64) (*models.Meal, error) {
	err := s.lock("GetMeal")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m, ok := s.d.meals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m = s.withCategory(m)
	return &m, nil
}

func (s *Store) ListMeals(_ context.Context, f models.MealFilter) ([]models.Meal, error) {
	err := s.lock("ListMeals")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(f.Search)
	meals := []models.Meal{}
	for _, m := range s.d.meals {
		if f.CategorySlug != "" && s.d.categories[m.CategoryID].Slug != f.CategorySlug {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Description), search) {
			continue
		}
		if f.OnlySellable && !m.CanBeOrdered(f.Now) {
			continue
		}
		meals = append(meals, s.withCategory(m))
	}
	sort.Slice(meals, func(i, j int) bool { return meals[i].Name < meals[j].Name })
	return meals, nil
}

func (s *Store) SetMealStock(_ context.Context, mealID int64, stock int) error {
	err := s.lock("SetMealStock")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	m, ok := s.d.meals[mealID]
	if !ok {
		return store.ErrNotFound
	}
	m.StockQuantity = stock
	m.UpdatedAt = time.Now()
	s.d.meals[mealID] = m
	return nil
}

func (s *Store) DecrementStock(_ context.Context, mealID int64, qty int) (bool, error) {
	err := s.lock("DecrementStock")
	defer s.mu.Unlock()
	if err != nil {
		return false, err
	}

	m, ok := s.d.meals[mealID]
	if !ok || m.StockQuantity < qty {
		return false, nil
	}
	m.StockQuantity -= qty
	m.UpdatedAt = time.Now()
	s.d.meals[mealID] = m
	return true, nil
}

//
// --- Carts ---
//

func (s *Store) GetActiveCart(_ context.Context, userID int64) (*models.Cart, error) {
	err := s.lock("GetActiveCart")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, c := range s.d.carts {
		if c.UserID == userID && c.Status == models.CartActive {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateCart(_ context.Context, c *models.Cart) error {
	err := s.lock("CreateCart")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, existing := range s.d.carts {
		if existing.UserID == c.UserID && existing.Status == models.CartActive {
			return store.ErrConflict
		}
	}
	now := time.Now()
	c.ID = s.d.next("carts")
	c.Status = models.CartActive
	c.CreatedAt, c.UpdatedAt = now, now
	row := *c
	row.Items = nil
	s.d.carts[c.ID] = row
	return nil
}

func (s *Store) SaveCartTotals(_ context.Context, c *models.Cart) error {
	err := s.lock("SaveCartTotals")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	row, ok := s.d.carts[c.ID]
	if !ok {
		return nil
	}
	c.UpdatedAt = time.Now()
	row.Subtotal, row.Tax, row.Discount, row.Total = c.Subtotal, c.Tax, c.Discount, c.Total
	row.UpdatedAt = c.UpdatedAt
	s.d.carts[c.ID] = row
	return nil
}

func (s *Store) CompleteCart(_ context.Context, cartID int64) error {
	err := s.lock("CompleteCart")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	row, ok := s.d.carts[cartID]
	if !ok || row.Status != models.CartActive {
		return store.ErrNotFound
	}
	row.Status = models.CartCompleted
	row.UpdatedAt = time.Now()
	s.d.carts[cartID] = row
	return nil
}

// withMeal fills the joined meal name.
func (s *Store) withMeal(item models.CartItem) models.CartItem {
	item.MealName = s.d.meals[item.MealID].Name
	return item
}

func (s *Store) ListCartItems(_ context.Context, cartID int64) ([]models.CartItem, error) {
	err := s.lock("ListCartItems")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	items := []models.CartItem{}
	for _, item := range s.d.cartItems {
		if item.CartID == cartID {
			items = append(items, s.withMeal(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) GetCartItem(_ context.Context, itemID int64) (*models.CartItem, error) {
	err := s.lock("GetCartItem")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	item, ok := s.d.cartItems[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	item = s.withMeal(item)
	return &item, nil
}

func (s *Store) FindCartItem(_ context.Context, cartID, mealID int64) (*models.CartItem, error) {
	err := s.lock("FindCartItem")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, item := range s.d.cartItems {
		if item.CartID == cartID && item.MealID == mealID {
			item = s.withMeal(item)
			return &item, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertCartItem(_ context.Context, item *models.CartItem) error {
	err := s.lock("InsertCartItem")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, existing := range s.d.cartItems {
		if existing.CartID == item.CartID && existing.MealID == item.MealID {
			return store.ErrConflict
		}
	}
	now := time.Now()
	item.ID = s.d.next("cart_items")
	item.CreatedAt, item.UpdatedAt = now, now
	row := *item
	row.MealName = ""
	s.d.cartItems[item.ID] = row
	return nil
}

func (s *Store) UpdateCartItem(_ context.Context, item *models.CartItem) error {
	err := s.lock("UpdateCartItem")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	row, ok := s.d.cartItems[item.ID]
	if !ok {
		return store.ErrNotFound
	}
	item.UpdatedAt = time.Now()
	row.Quantity, row.UnitPrice, row.DiscountAmount, row.Subtotal = item.Quantity, item.UnitPrice, item.DiscountAmount, item.Subtotal
	row.UpdatedAt = item.UpdatedAt
	s.d.cartItems[item.ID] = row
	return nil
}

func (s *Store) DeleteCartItem(_ context.Context, itemID int64) error {
	err := s.lock("DeleteCartItem")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	if _, ok := s.d.cartItems[itemID]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.cartItems, itemID)
	return nil
}

func (s *Store) DeleteCartItems(_ context.Context, cartID int64) error {
	err := s.lock("DeleteCartItems")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	for id, item := range s.d.cartItems {
		if item.CartID == cartID {
			delete(s.d.cartItems, id)
		}
	}
	return nil
}

//
// --- Orders ---
//

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	err := s.lock("CreateOrder")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, existing := range s.d.orders {
		if existing.OrderNumber == o.OrderNumber {
			return store.ErrConflict
		}
	}
	now := time.Now()
	o.ID = s.d.next("orders")
	o.CreatedAt, o.UpdatedAt = now, now
	row := *o
	row.Items, row.Address = nil, nil
	s.d.orders[o.ID] = row
	return nil
}

func (s *Store) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	err := s.lock("CreateOrderItem")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	if _, ok := s.d.orders[item.OrderID]; !ok {
		return store.ErrNotFound
	}
	item.ID = s.d.next("order_items")
	item.CreatedAt = time.Now()
	s.d.orderItems[item.ID] = *item
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	err := s.lock("GetOrder")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	o, ok := s.d.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (s *Store) GetOrderByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	err := s.lock("GetOrderByNumber")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, o := range s.d.orders {
		if o.OrderNumber == orderNumber {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListOrders(_ context.Context, userID int64) ([]models.Order, error) {
	err := s.lock("ListOrders")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	for _, o := range s.d.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	// Newest first; ids break ties between orders placed in the same instant.
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (s *Store) ListOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	err := s.lock("ListOrderItems")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	items := []models.OrderItem{}
	for _, item := range s.d.orderItems {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, o *models.Order, from models.OrderStatus) error {
	err := s.lock("UpdateOrderStatus")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	row, ok := s.d.orders[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	if row.Status != from {
		return store.ErrConflict
	}
	row.Status, row.PaymentStatus = o.Status, o.PaymentStatus
	row.ProcessingAt, row.ShippingAt, row.OutForDeliveryAt = o.ProcessingAt, o.ShippingAt, o.OutForDeliveryAt
	row.DeliveredAt, row.CancelledAt, row.UpdatedAt = o.DeliveredAt, o.CancelledAt, o.UpdatedAt
	s.d.orders[o.ID] = row
	return nil
}

//
// --- Addresses ---
//

func (s *Store) CreateAddress(_ context.Context, a *models.Address) error {
	err := s.lock("CreateAddress")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	now := time.Now()
	a.ID = s.d.next("addresses")
	a.CreatedAt, a.UpdatedAt = now, now
	s.d.addresses[a.ID] = *a
	return nil
}

func (s *Store) GetAddress(_ context.Context, id int64) (*models.Address, error) {
	err := s.lock("GetAddress")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	a, ok := s.d.addresses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListAddresses(_ context.Context, userID int64) ([]models.Address, error) {
	err := s.lock("ListAddresses")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	addresses := []models.Address{}
	for _, a := range s.d.addresses {
		if a.UserID == userID {
			addresses = append(addresses, a)
		}
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i].ID < addresses[j].ID })
	return addresses, nil
}

//
// --- Notifications & assistant history ---
//

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	err := s.lock("CreateNotification")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	n.ID = s.d.next("notifications")
	n.IsRead = false
	n.CreatedAt = time.Now()
	s.d.notifications[n.ID] = *n
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID int64) ([]models.Notification, error) {
	err := s.lock("ListNotifications")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	list := []models.Notification{}
	for _, n := range s.d.notifications {
		if n.UserID == userID {
			list = append(list, n)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].IsRead != list[j].IsRead {
			return !list[i].IsRead
		}
		return list[i].ID > list[j].ID
	})
	if len(list) > 50 {
		list = list[:50]
	}
	return list, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id, userID int64) (bool, error) {
	err := s.lock("MarkNotificationRead")
	defer s.mu.Unlock()
	if err != nil {
		return false, err
	}

	n, ok := s.d.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	s.d.notifications[id] = n
	return true, nil
}

func (s *Store) CreateChatHistory(_ context.Context, h *models.ChatHistory) error {
	err := s.lock("CreateChatHistory")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	h.ID = s.d.next("ai_chat_history")
	h.CreatedAt = time.Now()
	s.d.chats = append(s.d.chats, *h)
	return nil
}

// ChatHistory returns every stored assistant exchange.
func (s *Store) ChatHistory() []models.ChatHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatHistory(nil), s.d.chats...)
}
