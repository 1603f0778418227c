package transport

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock repositories for testing

type mockCategoryRepository struct {
	categories map[int64]*domain.Category
	nextID     int64
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.nextID++
	category.ID = m.nextID
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
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCategoryNotFound
}

type mockProductRepository struct {
	products   map[int64]*domain.Product
	referenced map[int64]bool
	nextID     int64
}

func (m *mockProductRepository) save(product *domain.Product) error {
	for _, p := range m.products {
		if p.Slug == product.Slug && p.ID != product.ID {
			return repository.ErrProductSlugTaken
		}
	}
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.nextID++
	product.ID = m.nextID
	if err := m.save(product); err != nil {
		m.nextID--
		return err
	}
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	return m.save(product)
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
	if p, ok := m.products[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindActiveBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug && p.IsActive {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindActiveByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	wanted := map[int64]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	return m.filter(func(p *domain.Product) bool { return wanted[p.ID] && p.IsActive }, 0), nil
}

func (m *mockProductRepository) List(ctx context.Context, f repository.ProductFilter) ([]*domain.Product, error) {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	return m.filter(func(p *domain.Product) bool {
		return (!f.ActiveOnly || p.IsActive) &&
			(!f.FeaturedOnly || p.Featured) &&
			(f.CategoryID == nil || p.CategoryID == *f.CategoryID) &&
			(query == "" || strings.Contains(strings.ToLower(p.Name), query)) &&
			p.ID != f.ExcludeID
	}, f.Limit), nil
}

func (m *mockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	return m.filter(func(p *domain.Product) bool { return p.IsActive && p.Stock < threshold }, 0), nil
}

func (m *mockProductRepository) HasOrderItems(ctx context.Context, id int64) (bool, error) {
	return m.referenced[id], nil
}

func (m *mockProductRepository) filter(keep func(*domain.Product) bool, limit int) []*domain.Product {
	products := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			c := *p
			products = append(products, &c)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products
}

type mockOrderRepository struct {
	orders   map[int64]*domain.Order
	products *mockProductRepository
	nextID   int64
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.nextID++
	order.ID = m.nextID
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		p := m.products.products[order.Items[i].ProductID]
		p.Stock -= order.Items[i].Quantity
		if p.Stock < 0 {
			p.Stock = 0
		}
		m.products.referenced[p.ID] = true
	}
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	if o, ok := m.orders[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(o.CustomerName+" "+o.Email), strings.ToLower(f.Query)) {
			continue
		}
		c := *o
		c.Items = nil
		orders = append(orders, &c)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	if f.Limit > 0 && len(orders) > f.Limit {
		orders = orders[:f.Limit]
	}
	return orders, nil
}

func (m *mockOrderRepository) LoadItems(ctx context.Context, orders []*domain.Order) error {
	for _, o := range orders {
		o.Items = append([]domain.OrderItem(nil), m.orders[o.ID].Items...)
	}
	return nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, notes string) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	o.Notes = notes
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
	users map[string]*domain.StaffUser
}

func (m *mockStaffRepository) Create(ctx context.Context, user *domain.StaffUser) error {
	user.Email = strings.ToLower(user.Email)
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrStaffAlreadyExists
	}
	user.ID = int64(len(m.users) + 1)
	m.users[user.Email] = user
	return nil
}

func (m *mockStaffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	if u, ok := m.users[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, repository.ErrStaffNotFound
}

func (m *mockStaffRepository) FindByID(ctx context.Context, id int64) (*domain.StaffUser, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrStaffNotFound
}

const (
	testJWTSecret     = "test-secret"
	testStaffEmail    = "admin@example.com"
	testStaffPassword = "s3cret-pass"
)

// testShop is the HTTP surface over mock repositories and a miniredis session store
type testShop struct {
	server     *httptest.Server
	client     *http.Client
	categories *mockCategoryRepository
	products   *mockProductRepository
	orders     *mockOrderRepository
	staff      *mockStaffRepository
}

func newTestShop(t *testing.T) *testShop {
	t.Helper()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	categories := &mockCategoryRepository{categories: map[int64]*domain.Category{}}
	products := &mockProductRepository{products: map[int64]*domain.Product{}, referenced: map[int64]bool{}}
	orders := &mockOrderRepository{orders: map[int64]*domain.Order{}, products: products}
	staffRepo := &mockStaffRepository{users: map[string]*domain.StaffUser{}}

	sessions := session.NewRedisStore(redisClient, time.Hour)
	calculator := service.NewCalculator(decimal.RequireFromString("0.07"))
	carts := service.NewCartService(products, sessions, calculator)
	checkout := service.NewCheckoutService(orders, carts, sessions, calculator, logger)
	catalog := service.NewCatalogService(products, categories)
	staff := service.NewStaffService(staffRepo, testJWTSecret, time.Hour)

	_, err := staff.EnsureStaff(context.Background(), testStaffEmail, testStaffPassword, "Store Admin")
	require.NoError(t, err)

	unlimited := func(next http.Handler) http.Handler { return next }
	staffAuth := middleware.StaffAuthMiddleware(middleware.StaffAuthConfig{
		JWTSecret:  testJWTSecret,
		CookieName: "staff_token",
		LoginPath:  staffLoginPath,
		Lookup:     staff.IsActiveStaff,
	}, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.StripSlashes)
	router.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware("sessionid", time.Hour, false, logger))
		NewStorefrontHandler(catalog, carts, logger).RegisterRoutes(r)
		NewCartHandler(carts, logger).RegisterRoutes(r, unlimited)
		NewCheckoutHandler(checkout, carts, logger).RegisterRoutes(r, unlimited)
	})
	router.Route("/staff", func(r chi.Router) {
		NewAuthHandler(staff, "staff_token", time.Hour, false, logger).RegisterRoutes(r, unlimited)
		NewStaffHandler(catalog, service.NewOrderService(orders), service.NewDashboardService(products, orders, 5), logger).
			RegisterRoutes(r, staffAuth)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testShop{
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		categories: categories,
		products:   products,
		orders:     orders,
		staff:      staffRepo,
	}
}

func (s *testShop) category(name string) *domain.Category {
	c := &domain.Category{Name: name}
	if err := s.categories.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (s *testShop) product(categoryID int64, name, price string, stock int) *domain.Product {
	s.products.nextID++
	p := &domain.Product{
		ID:         s.products.nextID,
		CategoryID: categoryID,
		Name:       name,
		Slug:       domain.Slugify(name),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
	}
	s.products.products[p.ID] = p
	return p
}
