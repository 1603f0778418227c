package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mock repositories for testing

type mockCategoryRepository struct {
	categories map[int64]*domain.Category
	nextID     int64
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[int64]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.nextID++
	category.ID = m.nextID
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

type mockProductRepository struct {
	products   map[int64]*domain.Product
	referenced map[int64]bool
	categories *mockCategoryRepository
	nextID     int64
}

func newMockProductRepository(categories *mockCategoryRepository) *mockProductRepository {
	return &mockProductRepository{
		products:   make(map[int64]*domain.Product),
		referenced: make(map[int64]bool),
		categories: categories,
	}
}

// add stores a product directly, bypassing validation
func (m *mockProductRepository) add(p *domain.Product) *domain.Product {
	if p.ID == 0 {
		m.nextID++
		p.ID = m.nextID
	} else if p.ID > m.nextID {
		m.nextID = p.ID
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepository) copyOf(p *domain.Product) *domain.Product {
	c := *p
	if category, ok := m.categories.categories[p.CategoryID]; ok {
		c.CategoryName = category.Name
	}
	return &c
}

func (m *mockProductRepository) checkWrite(product *domain.Product) error {
	for _, p := range m.products {
		if p.Slug == product.Slug && p.ID != product.ID {
			return repository.ErrProductSlugTaken
		}
	}
	if _, ok := m.categories.categories[product.CategoryID]; !ok {
		return repository.ErrCategoryNotFound
	}
	return nil
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := m.checkWrite(product); err != nil {
		return err
	}
	m.nextID++
	product.ID = m.nextID
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	if err := m.checkWrite(product); err != nil {
		return err
	}
	product.UpdatedAt = time.Now()
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	if m.referenced[id] {
		return repository.ErrProductReferenced
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return m.copyOf(p), nil
}

func (m *mockProductRepository) FindActiveBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug && p.IsActive {
			return m.copyOf(p), nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindActiveByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.IsActive {
			products = append(products, m.copyOf(p))
		}
	}
	sortByName(products)
	return products, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	products := []*domain.Product{}
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	for _, p := range m.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.FeaturedOnly && !p.Featured {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if filter.ExcludeID != 0 && p.ID == filter.ExcludeID {
			continue
		}
		products = append(products, m.copyOf(p))
	}
	sortByName(products)
	if filter.Limit > 0 && len(products) > filter.Limit {
		products = products[:filter.Limit]
	}
	return products, nil
}

func (m *mockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.products {
		if p.IsActive && p.Stock < threshold {
			products = append(products, m.copyOf(p))
		}
	}
	sortByName(products)
	return products, nil
}

func (m *mockProductRepository) HasOrderItems(ctx context.Context, id int64) (bool, error) {
	return m.referenced[id], nil
}

func sortByName(products []*domain.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
}

// mockOrderRepository applies stock decrements to the product mock the same
// way the SQL transaction does, and applies nothing when createErr is set.
type mockOrderRepository struct {
	orders    map[int64]*domain.Order
	products  *mockProductRepository
	nextID    int64
	createErr error
}

func newMockOrderRepository(products *mockProductRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:   make(map[int64]*domain.Order),
		products: products,
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, item := range order.Items {
		if _, ok := m.products.products[item.ProductID]; !ok {
			return repository.ErrProductNotFound
		}
	}

	m.nextID++
	order.ID = m.nextID
	order.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	order.UpdatedAt = order.CreatedAt

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = m.nextID*100 + int64(i)
		item.OrderID = order.ID
		p := m.products.products[item.ProductID]
		p.Stock -= item.Quantity
		if p.Stock < 0 {
			p.Stock = 0
		}
		m.products.referenced[item.ProductID] = true
	}

	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	c := *order
	c.Items = append([]domain.OrderItem(nil), order.Items...)
	return &c, nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	query := strings.ToLower(filter.Query)
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), query) &&
			!strings.Contains(strings.ToLower(o.Email), query) {
			continue
		}
		c := *o
		c.Items = nil
		orders = append(orders, &c)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	if filter.Limit > 0 && len(orders) > filter.Limit {
		orders = orders[:filter.Limit]
	}
	return orders, nil
}

func (m *mockOrderRepository) LoadItems(ctx context.Context, orders []*domain.Order) error {
	for _, o := range orders {
		if stored, ok := m.orders[o.ID]; ok {
			o.Items = append([]domain.OrderItem(nil), stored.Items...)
		}
	}
	return nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, notes string) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	order.Notes = notes
	return nil
}

func (m *mockOrderRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, o := range m.orders {
		if o.Status != domain.OrderStatusCancelled {
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

func (m *mockOrderRepository) CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error) {
	count := 0
	for _, o := range m.orders {
		if o.Status == status {
			count++
		}
	}
	return count, nil
}

type mockStaffRepository struct {
	users  map[string]*domain.StaffUser
	nextID int64
}

func newMockStaffRepository() *mockStaffRepository {
	return &mockStaffRepository{users: make(map[string]*domain.StaffUser)}
}

func (m *mockStaffRepository) Create(ctx context.Context, user *domain.StaffUser) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrStaffAlreadyExists
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Email] = user
	return nil
}

func (m *mockStaffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	user, exists := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !exists {
		return nil, repository.ErrStaffNotFound
	}
	return user, nil
}

func (m *mockStaffRepository) FindByID(ctx context.Context, id int64) (*domain.StaffUser, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrStaffNotFound
}

// mockSessionStore keeps deep copies so callers cannot mutate stored state
type mockSessionStore struct {
	sessions map[string]*session.Session
	saveErr  error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*session.Session)}
}

func cloneSession(s *session.Session) *session.Session {
	c := session.New(s.ID)
	for id, qty := range s.Cart {
		c.Cart[id] = qty
	}
	c.Messages = append([]session.Message(nil), s.Messages...)
	return c
}

func (m *mockSessionStore) Load(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, errors.New("empty session id")
	}
	s, ok := m.sessions[id]
	if !ok {
		return session.New(id), nil
	}
	return cloneSession(s), nil
}

func (m *mockSessionStore) Save(ctx context.Context, s *session.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

// cart returns the stored ledger for id, empty when unknown
func (m *mockSessionStore) cart(id string) domain.Cart {
	if s, ok := m.sessions[id]; ok {
		return s.Cart
	}
	return domain.NewCart()
}

// shop bundles the services over shared mocks
type shop struct {
	categories *mockCategoryRepository
	products   *mockProductRepository
	orders     *mockOrderRepository
	sessions   *mockSessionStore
	calculator *Calculator
	cart       CartService
	checkout   CheckoutService
	catalog    CatalogService
}

func newShop() *shop {
	categories := newMockCategoryRepository()
	products := newMockProductRepository(categories)
	orders := newMockOrderRepository(products)
	sessions := newMockSessionStore()
	calculator := NewCalculator(decimal.RequireFromString("0.07"))
	carts := NewCartService(products, sessions, calculator)

	return &shop{
		categories: categories,
		products:   products,
		orders:     orders,
		sessions:   sessions,
		calculator: calculator,
		cart:       carts,
		checkout:   NewCheckoutService(orders, carts, sessions, calculator, zap.NewNop()),
		catalog:    NewCatalogService(products, categories),
	}
}

func (s *shop) category(name string) *domain.Category {
	c := &domain.Category{Name: name}
	if err := s.categories.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (s *shop) product(categoryID int64, name, price string, stock int) *domain.Product {
	return s.products.add(&domain.Product{
		CategoryID: categoryID,
		Name:       name,
		Slug:       domain.Slugify(name),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
	})
}
