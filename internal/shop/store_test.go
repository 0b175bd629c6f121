package shop_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/gateway/gatewaytest"
	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/repository"
	"github.com/iliyamo/jewelry-storefront/internal/session"
	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

type recordingPublisher struct {
	mu     sync.Mutex
	orders []model.Order
	err    error
}

func (p *recordingPublisher) OrderPlaced(_ context.Context, o model.Order, _ model.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
	return p.err
}

type fixture struct {
	srv   *gatewaytest.Server
	state *repository.MemoryStateStore
	sess  *session.Store
	shop  *shop.Store
	pub   *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	srv := gatewaytest.New()
	t.Cleanup(srv.Close)
	state := repository.NewMemoryStateStore()
	gw := gateway.New(gateway.Options{BaseURL: srv.BaseURL(), State: state})
	sess := session.New(gw, state, nil)
	pub := &recordingPublisher{}
	st := shop.New(shop.Options{Backend: gw, Identity: sess, Publisher: pub})
	return fixture{srv: srv, state: state, sess: sess, shop: st, pub: pub}
}

func (f fixture) signIn(t *testing.T, role string) string {
	t.Helper()
	id := f.srv.AddUser(role+"@example.com", "pw", "Test "+role, role)
	_, err := f.sess.Login(context.Background(), role+"@example.com", "pw")
	require.NoError(t, err)
	return id
}

func strp(s string) *string { return &s }

func product(id string, price int64) model.Product {
	return model.Product{ID: id, Name: "P" + id, Price: decimal.NewFromInt(price), InStock: true}
}

func TestLoadProductsFromBackend(t *testing.T) {
	f := newFixture(t)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 2, Category: strp("cat_rings")})
	f.srv.AddProduct(gatewaytest.Product{ID: "b", Name: "Beta", Price: 200, Stock: 0, IsHolidaySpecial: true})

	f.shop.LoadProducts(context.Background())
	assert.False(t, f.shop.Degraded())
	require.Len(t, f.shop.Products(), 2)
	assert.Len(t, f.shop.ProductsByCategory("cat_rings"), 1)
	assert.Len(t, f.shop.HolidaySpecials(), 1)

	b, ok := f.shop.Product("beta")
	require.True(t, ok, "lookup by slug")
	assert.False(t, b.InStock)
}

func TestLoadProductsFallsBackToBuiltin(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodGet, gatewaytest.BasePath+"/products/", http.StatusInternalServerError, "db down")

	f.shop.LoadProducts(context.Background())
	assert.True(t, f.shop.Degraded())
	ps := f.shop.Products()
	require.Len(t, ps, 6)
	assert.Equal(t, "Heart Locket", ps[0].Name)
	assert.True(t, ps[0].Price.Equal(decimal.NewFromInt(51500)))
	assert.Equal(t, "18k Gold", ps[0].Details.Material)
	assert.Len(t, f.shop.NewArrivals(), 6)
	assert.Len(t, f.shop.ProductsByCategory("cat_bracelets"), 2)

	f.srv.ClearFailures()
	f.shop.LoadProducts(context.Background())
	assert.False(t, f.shop.Degraded())
	assert.Empty(t, f.shop.Products())
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	cs := f.shop.Categories()
	require.Len(t, cs, 5)
	c, ok := f.shop.Category("rings")
	require.True(t, ok)
	assert.Equal(t, "cat_rings", c.ID)
	_, ok = f.shop.Category("watches")
	assert.False(t, ok)
}

func TestAddSameProductTwice(t *testing.T) {
	f := newFixture(t)
	p := product("1", 500)

	assert.False(t, f.shop.CartOpen())
	f.shop.AddToCart(p)
	f.shop.AddToCart(p)

	cart := f.shop.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.True(t, f.shop.CartOpen())
	assert.Equal(t, 2, f.shop.ItemCount())
	assert.True(t, f.shop.Subtotal().Equal(decimal.NewFromInt(1000)))
}

func TestUpdateQuantityClampsAtOne(t *testing.T) {
	f := newFixture(t)
	p := product("1", 500)
	f.shop.AddToCart(p)
	f.shop.AddToCart(p)

	item, ok := f.shop.UpdateQuantity("1", -5)
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)
	item, _ = f.shop.UpdateQuantity("1", -1)
	assert.Equal(t, 1, item.Quantity, "decrement at 1 does not remove")
	require.Len(t, f.shop.Cart(), 1)

	item, _ = f.shop.UpdateQuantity("1", 3)
	assert.Equal(t, 4, item.Quantity)

	_, ok = f.shop.UpdateQuantity("missing", 1)
	assert.False(t, ok)
}

func TestRemoveAndClearCart(t *testing.T) {
	f := newFixture(t)
	f.shop.AddToCart(product("1", 100))
	f.shop.AddToCart(product("2", 200))
	f.shop.AddToCart(product("3", 300))

	f.shop.RemoveFromCart("2")
	cart := f.shop.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, "1", cart[0].ProductID)
	assert.Equal(t, "3", cart[1].ProductID)

	f.shop.ClearCart()
	assert.Empty(t, f.shop.Cart())
	assert.True(t, f.shop.Subtotal().IsZero())
}

func TestCartUsesEffectivePrice(t *testing.T) {
	f := newFixture(t)
	p := product("1", 1000)
	p.DiscountPercentage = decimal.NewFromInt(10)
	f.shop.AddToCart(p)
	f.shop.AddToCart(p)
	assert.True(t, f.shop.Subtotal().Equal(decimal.NewFromInt(1800)))
}

func TestToggleCart(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.shop.ToggleCart(nil))
	assert.False(t, f.shop.ToggleCart(nil))
	open := true
	assert.True(t, f.shop.ToggleCart(&open))
	assert.True(t, f.shop.ToggleCart(&open))
	closed := false
	assert.False(t, f.shop.ToggleCart(&closed))
	assert.False(t, f.shop.CartOpen())
}

func TestCreateDiscountedProduct(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleAdmin)
	f.shop.LoadProducts(context.Background())

	saved, err := f.shop.CreateProduct(context.Background(), model.Product{
		Name: "Solitaire", Price: decimal.NewFromInt(1000), DiscountPercentage: decimal.NewFromInt(25),
		CategoryID: "cat_rings", InStock: true,
	})
	require.NoError(t, err)

	ps := f.shop.Products()
	require.NotEmpty(t, ps)
	assert.Equal(t, saved.ID, ps[0].ID, "new products go first")
	assert.True(t, ps[0].EffectivePrice().Equal(decimal.NewFromInt(750)))
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.shop.CreateProduct(context.Background(), model.Product{Price: decimal.NewFromInt(-1), DiscountPercentage: decimal.NewFromInt(120)})
	require.ErrorIs(t, err, shop.ErrInvalidProduct)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "discount")
	assert.Empty(t, f.srv.Requests())
}

func TestFailedMutationLeavesCatalogUntouched(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleAdmin)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 2})
	f.shop.LoadProducts(context.Background())
	before := f.shop.Products()

	f.srv.Fail(http.MethodPost, gatewaytest.BasePath+"/products/", http.StatusInternalServerError, "boom")
	_, err := f.shop.CreateProduct(context.Background(), product("", 10))
	require.ErrorIs(t, err, gateway.ErrBackend)

	f.srv.Fail(http.MethodPut, gatewaytest.BasePath+"/products/a", http.StatusInternalServerError, "boom")
	upd := before[0]
	upd.Name = "Renamed"
	_, err = f.shop.UpdateProduct(context.Background(), upd)
	require.Error(t, err)

	assert.Equal(t, before, f.shop.Products())
}

func TestDeleteReferencedProductStaysListed(t *testing.T) {
	f := newFixture(t)
	uid := f.signIn(t, model.RoleAdmin)
	pid := f.srv.AddProduct(gatewaytest.Product{Name: "Alpha", Price: 100, Stock: 2})
	f.srv.AddOrder(uid, pid, "pending")
	f.shop.LoadProducts(context.Background())

	err := f.shop.DeleteProduct(context.Background(), pid)
	require.ErrorIs(t, err, gateway.ErrConflict)
	assert.Contains(t, gateway.Detail(err, ""), "Out of Stock")
	_, ok := f.shop.Product(pid)
	assert.True(t, ok)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleAdmin)
	pid := f.srv.AddProduct(gatewaytest.Product{Name: "Alpha", Price: 100, Stock: 2})
	f.shop.LoadProducts(context.Background())

	require.NoError(t, f.shop.DeleteProduct(context.Background(), pid))
	_, ok := f.shop.Product(pid)
	assert.False(t, ok)
	_, ok = f.srv.Product(pid)
	assert.False(t, ok)
}

func TestToggleStockIsLocalOnly(t *testing.T) {
	f := newFixture(t)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 3})
	f.shop.LoadProducts(context.Background())
	reqs := len(f.srv.Requests())

	p, err := f.shop.ToggleStock("a")
	require.NoError(t, err)
	assert.False(t, p.InStock)
	assert.Len(t, f.srv.Requests(), reqs, "no backend call")
	stored, _ := f.srv.Product("a")
	assert.Equal(t, 3, stored.Stock)

	f.shop.LoadProducts(context.Background())
	p, _ = f.shop.Product("a")
	assert.True(t, p.InStock, "reload restores backend truth")

	_, err = f.shop.ToggleStock("nope")
	assert.ErrorIs(t, err, shop.ErrProductNotFound)
}

func TestSetStockPersists(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleAdmin)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 3})
	f.shop.LoadProducts(context.Background())

	p, err := f.shop.SetStock(context.Background(), "a", false)
	require.NoError(t, err)
	assert.False(t, p.InStock)
	stored, _ := f.srv.Product("a")
	assert.Equal(t, 0, stored.Stock)

	p, err = f.shop.SetStock(context.Background(), "a", true)
	require.NoError(t, err)
	assert.True(t, p.InStock)
	stored, _ = f.srv.Product("a")
	assert.Equal(t, gateway.DefaultStockQuantity, stored.Stock)
}

func TestUpdateKeepsKnownQuantity(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleAdmin)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 7})
	f.shop.LoadProducts(context.Background())

	// an edit form that knows nothing about quantities
	_, err := f.shop.UpdateProduct(context.Background(), model.Product{
		ID: "a", Name: "Alpha II", Price: decimal.NewFromInt(120), InStock: true,
	})
	require.NoError(t, err)
	stored, _ := f.srv.Product("a")
	assert.Equal(t, 7, stored.Stock)
	assert.Equal(t, "Alpha II", stored.Name)
	p, _ := f.shop.Product("a")
	assert.Equal(t, "Alpha II", p.Name)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	uid := f.signIn(t, model.RoleCustomer)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 5})
	f.srv.AddProduct(gatewaytest.Product{ID: "b", Name: "Beta", Price: 250, Stock: 5})
	f.shop.LoadProducts(context.Background())
	a, _ := f.shop.Product("a")
	b, _ := f.shop.Product("b")
	f.shop.AddToCart(a)
	f.shop.AddToCart(a)
	f.shop.AddToCart(b)

	order, err := f.shop.PlaceOrder(context.Background(), shop.CheckoutRequest{
		CustomerName: "Test Customer", Phone: "9999999999",
		ShippingAddress: model.ShippingAddress{Street: "1 MG Road", City: "Pune", State: "MH", Zip: "411001", Country: "India"},
	})
	require.NoError(t, err)
	assert.Equal(t, uid, order.UserID)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, model.PaymentMethodCOD, order.PaymentMethod)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(450)))
	assert.Len(t, order.Items, 2)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Pune", order.ShippingAddress.City)

	assert.Empty(t, f.shop.Cart())
	require.Len(t, f.pub.orders, 1)
	assert.Equal(t, order.ID, f.pub.orders[0].ID)
}

func TestPlaceOrderPreconditions(t *testing.T) {
	f := newFixture(t)
	req := shop.CheckoutRequest{
		CustomerName: "C", Phone: "1",
		ShippingAddress: model.ShippingAddress{Street: "s", City: "c", State: "st", Zip: "z", Country: "IN"},
	}
	f.shop.AddToCart(product("a", 1))

	_, err := f.shop.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, session.ErrNotAuthenticated)

	f.signIn(t, model.RoleCustomer)
	_, err = f.shop.PlaceOrder(context.Background(), shop.CheckoutRequest{CustomerName: "C"})
	require.ErrorIs(t, err, shop.ErrInvalidCheckout)
	assert.Contains(t, err.Error(), "phone")
	assert.Contains(t, err.Error(), "street")

	f.shop.ClearCart()
	_, err = f.shop.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, shop.ErrEmptyCart)
	assert.Empty(t, f.srv.Orders())
}

func TestPlaceOrderFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleCustomer)
	f.shop.AddToCart(product("ghost", 1))

	_, err := f.shop.PlaceOrder(context.Background(), shop.CheckoutRequest{
		CustomerName: "C", Phone: "1",
		ShippingAddress: model.ShippingAddress{Street: "s", City: "c", State: "st", Zip: "z", Country: "IN"},
	})
	require.ErrorIs(t, err, gateway.ErrNotFound)
	assert.Len(t, f.shop.Cart(), 1)
	assert.Empty(t, f.pub.orders)
}

func TestPublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleCustomer)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 5})
	f.shop.AddToCart(product("a", 100))
	f.pub.err = errors.New("broker down")

	_, err := f.shop.PlaceOrder(context.Background(), shop.CheckoutRequest{
		CustomerName: "C", Phone: "1",
		ShippingAddress: model.ShippingAddress{Street: "s", City: "c", State: "st", Zip: "z", Country: "IN"},
	})
	require.NoError(t, err)
	assert.Empty(t, f.shop.Cart())
}

func TestAdvanceOrder(t *testing.T) {
	f := newFixture(t)
	uid := f.signIn(t, model.RoleAdmin)
	oid := f.srv.AddOrder(uid, "p", "pending")

	_, err := f.shop.AdvanceOrder(context.Background(), oid, model.OrderShipped)
	require.ErrorIs(t, err, shop.ErrInvalidTransition)
	_, patched := f.srv.LastRequest(http.MethodPatch, gatewaytest.BasePath+"/orders/"+oid+"/status")
	assert.False(t, patched, "rejected before reaching the backend")

	o, err := f.shop.AdvanceOrder(context.Background(), oid, model.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, o.Status)

	o, err = f.shop.AdvanceOrder(context.Background(), oid, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, o.Status)

	_, err = f.shop.AdvanceOrder(context.Background(), oid, model.OrderPending)
	require.ErrorIs(t, err, shop.ErrInvalidTransition)

	_, err = f.shop.AdvanceOrder(context.Background(), "no-such-order", model.OrderConfirmed)
	require.ErrorIs(t, err, shop.ErrOrderNotFound)
}

func TestListOrdersScopedByBackend(t *testing.T) {
	f := newFixture(t)
	other := f.srv.AddUser("other@example.com", "pw", "O", "customer")
	f.srv.AddOrder(other, "p", "pending")
	_, err := f.shop.ListOrders(context.Background())
	require.ErrorIs(t, err, session.ErrNotAuthenticated)

	me := f.signIn(t, model.RoleCustomer)
	f.srv.AddOrder(me, "p", "delivered")
	orders, err := f.shop.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, me, orders[0].UserID)
	assert.True(t, orders[0].Status.Terminal())
}

// gatedBackend holds PlaceOrder until release is closed.
type gatedBackend struct {
	shop.Backend
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) PlaceOrder(ctx context.Context, r gateway.OrderRequest) (model.Order, error) {
	close(g.entered)
	<-g.release
	return g.Backend.PlaceOrder(ctx, r)
}

func TestCartChangesDuringCheckoutSurvive(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleCustomer)
	f.srv.AddProduct(gatewaytest.Product{ID: "a", Name: "Alpha", Price: 100, Stock: 5})
	f.srv.AddProduct(gatewaytest.Product{ID: "b", Name: "Beta", Price: 250, Stock: 5})

	gw := gateway.New(gateway.Options{BaseURL: f.srv.BaseURL(), State: f.state})
	gated := &gatedBackend{Backend: gw, entered: make(chan struct{}), release: make(chan struct{})}
	st := shop.New(shop.Options{Backend: gated, Identity: f.sess})
	st.AddToCart(product("a", 100))

	done := make(chan error, 1)
	go func() {
		_, err := st.PlaceOrder(context.Background(), shop.CheckoutRequest{
			CustomerName: "C", Phone: "1",
			ShippingAddress: model.ShippingAddress{Street: "s", City: "c", State: "st", Zip: "z", Country: "IN"},
		})
		done <- err
	}()

	<-gated.entered
	st.AddToCart(product("b", 250))
	st.AddToCart(product("a", 100))
	close(gated.release)
	require.NoError(t, <-done)

	cart := st.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, "a", cart[0].ProductID)
	assert.Equal(t, 1, cart[0].Quantity, "only the ordered unit leaves the cart")
	assert.Equal(t, "b", cart[1].ProductID)
	assert.Equal(t, 1, cart[1].Quantity)

	orders := f.srv.Orders()
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 1, orders[0].Items[0].Quantity)
}
