package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/jewelry-storefront/internal/addressbook"
	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/gateway/gatewaytest"
	"github.com/iliyamo/jewelry-storefront/internal/handler"
	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/repository"
	"github.com/iliyamo/jewelry-storefront/internal/router"
	"github.com/iliyamo/jewelry-storefront/internal/session"
	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

type fixture struct {
	srv  *gatewaytest.Server
	sess *session.Store
	shop *shop.Store
	e    *echo.Echo
	ring string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := gatewaytest.New()
	t.Cleanup(srv.Close)
	ring := srv.AddProduct(gatewaytest.Product{Name: "Rose Ring", Price: 1000, Stock: 3})

	state := repository.NewMemoryStateStore()
	gw := gateway.New(gateway.Options{BaseURL: srv.BaseURL(), State: state})
	sess := session.New(gw, state, nil)
	st := shop.New(shop.Options{Backend: gw, Identity: sess})
	st.LoadProducts(context.Background())
	book := addressbook.New(gw, sess, nil)

	e := echo.New()
	router.RegisterRoutes(e, router.Handlers{
		Health:    handler.Health(st),
		Session:   handler.NewSessionHandler(sess),
		Catalog:   handler.NewCatalogHandler(st),
		Cart:      handler.NewCartHandler(st),
		Orders:    handler.NewOrderHandler(st),
		Addresses: handler.NewAddressHandler(book),
		Admin:     handler.NewAdminHandler(st),
		Identity:  sess,
	})
	return &fixture{srv: srv, sess: sess, shop: st, e: e, ring: ring}
}

func (f *fixture) call(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (f *fixture) signIn(t *testing.T, role string) {
	t.Helper()
	f.srv.AddUser(role+"@example.com", "pw", "Test "+role, role)
	rec, _ := f.call(http.MethodPost, "/v1/session/login", `{"email":"`+role+`@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

const checkoutBody = `{"customerName":"Asha","phone":"9999","shippingAddress":{"street":"1 MG Road","city":"Jaipur","state":"RJ","zip":"302001","country":"IN"}}`

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec, out := f.call(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["degraded"])
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("asha@example.com", "secret", "Asha", model.RoleCustomer)

	rec, out := f.call(http.MethodPost, "/v1/session/login", `{"email":"asha@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password", out["error"])
	assert.NotContains(t, out, "redirect")

	rec, _ = f.call(http.MethodPost, "/v1/session/login", `{"email":"asha@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.call(http.MethodPost, "/v1/session/login", `{"email":"asha@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, out = f.call(http.MethodGet, "/v1/session", "")
	assert.Equal(t, true, out["authenticated"])
	assert.Equal(t, "Asha", out["user"].(map[string]any)["name"])

	rec, _ = f.call(http.MethodPost, "/v1/session/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, out = f.call(http.MethodGet, "/v1/session", "")
	assert.Equal(t, false, out["authenticated"])
}

func TestSignupRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	rec, out := f.call(http.MethodPost, "/v1/session/signup", `{"name":"Ravi","email":"ravi@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["signInRequired"])
	assert.False(t, f.sess.Authenticated())
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	rec, out := f.call(http.MethodGet, "/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["products"], 1)

	rec, _ = f.call(http.MethodGet, "/v1/products/rose-ring", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.call(http.MethodGet, "/v1/products/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
	crec := httptest.NewRecorder()
	f.e.ServeHTTP(crec, req)
	var cats []model.Category
	require.NoError(t, json.Unmarshal(crec.Body.Bytes(), &cats))
	assert.NotEmpty(t, cats)
}

func TestCartFlow(t *testing.T) {
	f := newFixture(t)

	rec, out := f.call(http.MethodPost, "/v1/cart/items", `{"productId":"`+f.ring+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["open"])
	f.call(http.MethodPost, "/v1/cart/items", `{"productId":"`+f.ring+`"}`)

	_, out = f.call(http.MethodPatch, "/v1/cart/items/"+f.ring, `{"delta":-5}`)
	assert.EqualValues(t, 1, out["itemCount"])
	assert.Equal(t, "1000.00", out["subtotal"])

	rec, _ = f.call(http.MethodPatch, "/v1/cart/items/nope", `{"delta":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, out = f.call(http.MethodPost, "/v1/cart/toggle", "")
	assert.Equal(t, false, out["open"])
	_, out = f.call(http.MethodPost, "/v1/cart/toggle", `{"open":true}`)
	assert.Equal(t, true, out["open"])

	_, out = f.call(http.MethodDelete, "/v1/cart/items/"+f.ring, "")
	assert.EqualValues(t, 0, out["itemCount"])
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	f.call(http.MethodPost, "/v1/cart/items", `{"productId":"`+f.ring+`"}`)

	rec, out := f.call(http.MethodPost, "/v1/checkout", checkoutBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/signin", out["redirect"])

	f.signIn(t, model.RoleCustomer)
	rec, _ = f.call(http.MethodPost, "/v1/checkout", `{"customerName":"Asha"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = f.call(http.MethodPost, "/v1/checkout", checkoutBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "pending", out["status"])
	assert.Empty(t, f.shop.Cart())

	rec, _ = f.call(http.MethodPost, "/v1/checkout", checkoutBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")
}

func TestRevokedTokenRedirects(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleCustomer)
	f.srv.RevokeTokens()

	rec, out := f.call(http.MethodGet, "/v1/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/signin", out["redirect"])
	assert.False(t, f.sess.Authenticated())
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleCustomer)
	rec, _ := f.call(http.MethodDelete, "/v1/admin/products/"+f.ring, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.call(http.MethodPost, "/v1/session/logout", "")

	f.signIn(t, model.RoleAdmin)
	f.srv.AddOrder("someone", f.ring, "pending")

	rec, out := f.call(http.MethodDelete, "/v1/admin/products/"+f.ring, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, out["error"], "part of existing orders")

	_, out = f.call(http.MethodPost, "/v1/admin/products/"+f.ring+"/toggle-stock", "")
	assert.Equal(t, false, out["persisted"])
	assert.Equal(t, false, out["product"].(map[string]any)["inStock"])

	rec, out = f.call(http.MethodPut, "/v1/admin/products/"+f.ring+"/stock", `{"inStock":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["persisted"])
	stored, _ := f.srv.Product(f.ring)
	assert.Zero(t, stored.Stock)

	rec, out = f.call(http.MethodPost, "/v1/admin/products", `{"name":"Pearl Drop","price":"2500","categoryId":"cat_earrings","inStock":true,"details":{"material":"Silver"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Pearl Drop", out["name"])

	rec, _ = f.call(http.MethodPost, "/v1/admin/products", `{"name":"","price":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOrderStatus(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleAdmin)
	id := f.srv.AddOrder("someone", f.ring, "pending")

	rec, _ := f.call(http.MethodPatch, "/v1/admin/orders/"+id+"/status", `{"status":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.call(http.MethodPatch, "/v1/admin/orders/"+id+"/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "skipping confirmed")

	rec, out := f.call(http.MethodPatch, "/v1/admin/orders/"+id+"/status", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", out["status"])

	rec, _ = f.call(http.MethodPatch, "/v1/admin/orders/missing/status", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddresses(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.call(http.MethodGet, "/v1/addresses", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.signIn(t, model.RoleCustomer)
	rec, _ = f.call(http.MethodPost, "/v1/addresses", `{"street":"1 MG Road"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out := f.call(http.MethodPost, "/v1/addresses", `{"street":"1 MG Road","city":"Jaipur","state":"RJ","zip":"302001","country":"IN","isDefault":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := out["id"].(string)

	rec, out = f.call(http.MethodPut, "/v1/addresses/"+id, `{"street":"2 MG Road","city":"Jaipur","state":"RJ","zip":"302001","country":"IN"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2 MG Road", out["street"])

	rec, _ = f.call(http.MethodDelete, "/v1/addresses/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBackendOutageIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, model.RoleCustomer)
	f.srv.Fail(http.MethodGet, gatewaytest.BasePath+"/orders/", http.StatusInternalServerError, "boom")

	rec, out := f.call(http.MethodGet, "/v1/orders", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "backend unavailable", out["error"])
}
