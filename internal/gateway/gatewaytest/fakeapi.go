// Package gatewaytest provides an in-memory stand-in for the storefront
// REST backend.  It speaks the same wire contract (OAuth2 password login,
// snake_case JSON, FastAPI-style {"detail": ...} errors) so gateway,
// session and shop tests exercise real HTTP exchanges.
package gatewaytest

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/jewelry-storefront/internal/utils"
)

// BasePath is the API prefix; clients use URL()+BasePath as base URL.
const BasePath = "/api/v1"

// User is a stored account.
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	FullName     *string `json:"full_name"`
	Role         string  `json:"role"`
	PhoneNumber  *string `json:"phone_number"`
	Address      *string `json:"address"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    string  `json:"created_at"`
	passwordHash string
}

// Details mirrors the optional product attribute object.
type Details struct {
	Material string `json:"material"`
	Gemstone string `json:"gemstone,omitempty"`
	Weight   string `json:"weight,omitempty"`
}

// Product is a stored product in backend shape.
type Product struct {
	ID                 string   `json:"id"`
	Slug               string   `json:"slug"`
	Name               string   `json:"name"`
	Description        *string  `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	ImageURL           *string  `json:"image_url"`
	Category           *string  `json:"category"`
	Stock              int      `json:"stock"`
	IsFeatured         bool     `json:"is_featured"`
	IsHolidaySpecial   bool     `json:"is_holiday_special"`
	Details            *Details `json:"details,omitempty"`
}

// OrderItem and Order mirror the backend order schema.
type OrderItem struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

type Order struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	CustomerName    *string        `json:"customer_name"`
	Phone           *string        `json:"phone"`
	PaymentMethod   string         `json:"payment_method"`
	Status          string         `json:"status"`
	TotalAmount     float64        `json:"total_amount"`
	CreatedAt       string         `json:"created_at"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress map[string]any `json:"shipping_address"`
}

type Address struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

// Recorded is one request as the backend saw it.
type Recorded struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	ContentType   string
	RequestID     string
}

// Server is the fake backend.  All exported methods are safe to call
// while requests are in flight.
type Server struct {
	*httptest.Server
	Secret string

	mu        sync.Mutex
	users     map[string]*User
	products  []*Product
	orders    []*Order
	addresses map[string][]*Address
	revoked   bool
	failures  map[string]failure
	requests  []Recorded
	// signupToken makes signup return an access_token, as some backends do.
	signupToken bool
}

type failure struct {
	status int
	detail string
}

// naive timestamps, as the backend serialises them (no zone).
const naiveLayout = "2006-01-02T15:04:05.000000"

// New starts a fake backend.  Close it with Close.
func New() *Server {
	s := &Server{
		Secret:    "test-secret",
		users:     make(map[string]*User),
		addresses: make(map[string][]*Address),
		failures:  make(map[string]failure),
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(s.record)

	api := e.Group(BasePath)
	api.POST("/auth/login", s.login)
	api.POST("/auth/signup", s.signup)
	api.GET("/products/", s.listProducts)
	api.GET("/products/:id", s.getProduct)

	auth := api.Group("", s.requireToken)
	auth.GET("/users/me", s.me)
	auth.PUT("/users/me", s.updateMe)
	auth.GET("/users/me/addresses", s.listAddresses)
	auth.POST("/users/me/addresses", s.createAddress)
	auth.PUT("/users/me/addresses/:id", s.updateAddress)
	auth.DELETE("/users/me/addresses/:id", s.deleteAddress)
	auth.POST("/products/", s.createProduct)
	auth.PUT("/products/:id", s.updateProduct)
	auth.DELETE("/products/:id", s.deleteProduct)
	auth.GET("/orders/", s.listOrders)
	auth.POST("/orders/", s.createOrder)
	auth.PATCH("/orders/:id/status", s.updateOrderStatus)

	s.Server = httptest.NewServer(e)
	return s
}

// BaseURL is the value to configure the gateway with.
func (s *Server) BaseURL() string { return s.URL + BasePath }

// AddUser creates an account and returns its id.
func (s *Server) AddUser(email, password, name, role string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		FullName:     &name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now.Format(naiveLayout),
		passwordHash: string(hash),
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u.ID
}

// AddProduct stores p, assigning an id and slug when missing.
func (s *Server) AddProduct(p Product) string {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Name)
	}
	s.mu.Lock()
	s.products = append(s.products, &p)
	s.mu.Unlock()
	return p.ID
}

// Product returns a copy of the stored product.
func (s *Server) Product(id string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findProduct(id); p != nil {
		return *p, true
	}
	return Product{}, false
}

// AddOrder stores an order for userID referencing productID.
func (s *Server) AddOrder(userID, productID, status string) string {
	o := &Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		PaymentMethod: "COD",
		Status:        status,
		CreatedAt:     time.Now().UTC().Format(naiveLayout),
		Items:         []OrderItem{{ID: uuid.NewString(), ProductID: productID, Quantity: 1}},
	}
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()
	return o.ID
}

// Orders returns copies of all stored orders.
func (s *Server) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

// Fail makes every request matching method and path (as registered, e.g.
// "/api/v1/products/") answer status with detail until cleared.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	s.failures[method+" "+path] = failure{status: status, detail: detail}
	s.mu.Unlock()
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]failure)
	s.mu.Unlock()
}

// RevokeTokens makes every token issued so far (and later) invalid.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.revoked = true
	s.mu.Unlock()
}

// IssueTokenOnSignup toggles returning an access_token from signup.
func (s *Server) IssueTokenOnSignup(on bool) {
	s.mu.Lock()
	s.signupToken = on
	s.mu.Unlock()
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// LastRequest returns the most recent request matching method and path.
func (s *Server) LastRequest(method, path string) (Recorded, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Recorded{}, false
}

// ----- middleware -----

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		f, failing := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if failing {
			return detail(c, f.status, f.detail)
		}
		return next(c)
	}
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return detail(c, http.StatusUnauthorized, "Not authenticated")
		}
		tok, err := jwt.Parse(strings.TrimPrefix(h, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(s.Secret), nil
		})
		if err != nil || !tok.Valid {
			return detail(c, http.StatusForbidden, "Could not validate credentials")
		}
		sub, _ := tok.Claims.GetSubject()
		s.mu.Lock()
		u, ok := s.users[sub]
		revoked := s.revoked
		s.mu.Unlock()
		if revoked || !ok {
			return detail(c, http.StatusUnauthorized, "Could not validate credentials")
		}
		c.Set("user", u)
		return next(c)
	}
}

func currentUser(c echo.Context) *User { return c.Get("user").(*User) }

// ----- auth & users -----

func (s *Server) login(c echo.Context) error {
	email := strings.ToLower(c.FormValue("username"))
	password := c.FormValue("password")
	s.mu.Lock()
	var found *User
	for _, u := range s.users {
		if u.Email == email {
			found = u
			break
		}
	}
	s.mu.Unlock()
	if found == nil || bcrypt.CompareHashAndPassword([]byte(found.passwordHash), []byte(password)) != nil {
		return detail(c, http.StatusBadRequest, "Incorrect email or password")
	}
	tok, _, err := utils.SignToken(s.Secret, found.ID, found.Role, time.Hour)
	if err != nil {
		return detail(c, http.StatusInternalServerError, "token")
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": tok, "token_type": "bearer"})
}

func (s *Server) signup(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return detail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	s.mu.Lock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(req.Email) {
			s.mu.Unlock()
			return detail(c, http.StatusBadRequest, "The user with this email already exists in the system")
		}
	}
	withToken := s.signupToken
	s.mu.Unlock()

	id := s.AddUser(req.Email, req.Password, req.FullName, "customer")
	s.mu.Lock()
	u := *s.users[id]
	s.mu.Unlock()
	if !withToken {
		return c.JSON(http.StatusOK, u)
	}
	tok, _, _ := utils.SignToken(s.Secret, u.ID, u.Role, time.Hour)
	return c.JSON(http.StatusOK, struct {
		User
		AccessToken string `json:"access_token"`
	}{u, tok})
}

func (s *Server) me(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, *currentUser(c))
}

func (s *Server) updateMe(c echo.Context) error {
	var req struct {
		Email       *string `json:"email"`
		FullName    *string `json:"full_name"`
		PhoneNumber *string `json:"phone_number"`
		Address     *string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := currentUser(c)
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.FullName != nil {
		u.FullName = req.FullName
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = req.PhoneNumber
	}
	if req.Address != nil {
		u.Address = req.Address
	}
	return c.JSON(http.StatusOK, *u)
}

// ----- products -----

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugDash = regexp.MustCompile(`[\s-]+`)

func slugify(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = slugStrip.ReplaceAllString(s, "")
	return slugDash.ReplaceAllString(s, "-")
}

func (s *Server) findProduct(idOrSlug string) *Product {
	for _, p := range s.products {
		if p.Slug == idOrSlug {
			return p
		}
	}
	for _, p := range s.products {
		if p.ID == idOrSlug {
			return p
		}
	}
	return nil
}

func (s *Server) listProducts(c echo.Context) error {
	cat := c.QueryParam("category")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if cat != "" && (p.Category == nil || *p.Category != cat) {
			continue
		}
		out = append(out, *p)
		if len(out) == limit {
			break
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProduct(c.Param("id"))
	if p == nil {
		return detail(c, http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, *p)
}

func (s *Server) createProduct(c echo.Context) error {
	var p Product
	if err := c.Bind(&p); err != nil || p.Name == "" {
		return detail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	p.ID = ""
	if p.Slug == "" {
		p.Slug = slugify(p.Name)
	}
	s.mu.Lock()
	if s.findProduct(p.Slug) != nil {
		s.mu.Unlock()
		return detail(c, http.StatusBadRequest, "The product with this slug already exists")
	}
	s.mu.Unlock()
	id := s.AddProduct(p)
	stored, _ := s.Product(id)
	return c.JSON(http.StatusOK, stored)
}

func (s *Server) updateProduct(c echo.Context) error {
	var in Product
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProduct(c.Param("id"))
	if p == nil {
		return detail(c, http.StatusNotFound, "Product not found")
	}
	id, slug := p.ID, p.Slug
	*p = in
	p.ID = id
	if p.Slug == "" {
		p.Slug = slug
	}
	return c.JSON(http.StatusOK, *p)
}

func (s *Server) deleteProduct(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProduct(c.Param("id"))
	if p == nil {
		return detail(c, http.StatusNotFound, "Product not found")
	}
	for _, o := range s.orders {
		for _, it := range o.Items {
			if it.ProductID == p.ID {
				return detail(c, http.StatusBadRequest,
					"Cannot delete this product because it is part of existing orders. Please mark it as 'Out of Stock' instead.")
			}
		}
	}
	for i, q := range s.products {
		if q == p {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	return c.JSON(http.StatusOK, *p)
}

// ----- orders -----

func (s *Server) listOrders(c echo.Context) error {
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if u.Role == "admin" || o.UserID == u.ID {
			out = append(out, *o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createOrder(c echo.Context) error {
	var req struct {
		Items []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
		ShippingAddress map[string]any `json:"shipping_address"`
		CustomerName    string         `json:"customer_name"`
		Phone           string         `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &Order{
		ID:              uuid.NewString(),
		UserID:          u.ID,
		CustomerName:    &req.CustomerName,
		Phone:           &req.Phone,
		PaymentMethod:   "COD",
		Status:          "pending",
		CreatedAt:       time.Now().UTC().Format(naiveLayout),
		ShippingAddress: req.ShippingAddress,
	}
	for _, it := range req.Items {
		p := s.findProduct(it.ProductID)
		if p == nil {
			return detail(c, http.StatusNotFound, "Product "+it.ProductID+" not found")
		}
		o.TotalAmount += p.Price * float64(it.Quantity)
		o.Items = append(o.Items, OrderItem{
			ID: uuid.NewString(), ProductID: p.ID, Quantity: it.Quantity, PriceAtPurchase: p.Price,
		})
	}
	s.orders = append(s.orders, o)
	return c.JSON(http.StatusOK, *o)
}

func (s *Server) updateOrderStatus(c echo.Context) error {
	u := currentUser(c)
	if u.Role != "admin" {
		return detail(c, http.StatusForbidden, "The user doesn't have enough privileges")
	}
	status := c.QueryParam("status")
	switch status {
	case "pending", "confirmed", "shipped", "delivered", "cancelled", "failed":
	default:
		return detail(c, http.StatusBadRequest, "Invalid status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == c.Param("id") {
			o.Status = status
			return c.JSON(http.StatusOK, *o)
		}
	}
	return detail(c, http.StatusNotFound, "Order not found")
}

// ----- addresses -----

func (s *Server) listAddresses(c echo.Context) error {
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Address, 0)
	for _, a := range s.addresses[u.ID] {
		out = append(out, *a)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createAddress(c echo.Context) error {
	var a Address
	if err := c.Bind(&a); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	u := currentUser(c)
	a.ID = uuid.NewString()
	a.UserID = u.ID
	a.CreatedAt = time.Now().UTC().Format(naiveLayout)
	s.mu.Lock()
	s.addresses[u.ID] = append(s.addresses[u.ID], &a)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, a)
}

func (s *Server) updateAddress(c echo.Context) error {
	var in Address
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.addresses[u.ID] {
		if a.ID == c.Param("id") {
			in.ID, in.UserID, in.CreatedAt = a.ID, a.UserID, a.CreatedAt
			*a = in
			return c.JSON(http.StatusOK, *a)
		}
	}
	return detail(c, http.StatusNotFound, "Address not found")
}

func (s *Server) deleteAddress(c echo.Context) error {
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.addresses[u.ID]
	for i, a := range list {
		if a.ID == c.Param("id") {
			s.addresses[u.ID] = append(list[:i], list[i+1:]...)
			return c.JSON(http.StatusOK, *a)
		}
	}
	return detail(c, http.StatusNotFound, "Address not found")
}
