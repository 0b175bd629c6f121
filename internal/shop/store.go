// Package shop holds the browsable catalog, the in-memory cart and the
// order flows built on them.
//
// Mutations come in two kinds and the package keeps them apart:
// authoritative operations (Catalog, Checkout) reach the backend first and
// touch local state only after it succeeded, while local operations
// (LocalCatalog and the cart) change in-process state only and are never
// sent anywhere until checkout.
package shop

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/model"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidCheckout   = errors.New("incomplete checkout details")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

// Backend is the subset of the gateway the shop calls.
type Backend interface {
	ListProducts(ctx context.Context, f gateway.ListFilter) ([]model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListOrders(ctx context.Context) ([]model.Order, error)
	PlaceOrder(ctx context.Context, r gateway.OrderRequest) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error)
}

// Identity answers who is acting; the session store satisfies it.
type Identity interface {
	User() (model.User, bool)
	Authenticated() bool
}

// OrderPublisher announces placed orders.  Failures are logged by the
// caller and never undo the order.
type OrderPublisher interface {
	OrderPlaced(ctx context.Context, o model.Order, placedBy model.User) error
}

// Catalog is the authoritative product surface: every call goes to the
// backend first.
type Catalog interface {
	LoadProducts(ctx context.Context)
	CreateProduct(ctx context.Context, p model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SetStock(ctx context.Context, id string, inStock bool) (model.Product, error)
}

// LocalCatalog is the display-only product surface.  Its changes are
// never persisted and disappear on the next LoadProducts.
type LocalCatalog interface {
	ToggleStock(id string) (model.Product, error)
}

var (
	_ Catalog      = (*Store)(nil)
	_ LocalCatalog = (*Store)(nil)
)

type Options struct {
	Backend   Backend
	Identity  Identity
	Publisher OrderPublisher // optional
	Logger    *zap.Logger
}

// Store is safe for concurrent use.  Backend calls are never made while
// a store mutex is held.
type Store struct {
	backend   Backend
	identity  Identity
	publisher OrderPublisher
	log       *zap.Logger

	mu         sync.RWMutex
	products   []model.Product
	degraded   bool
	categories []model.Category

	locks keyLock

	cmu      sync.RWMutex
	cart     []model.CartItem
	cartOpen bool

	omu    sync.RWMutex
	orders []model.Order
}

// New returns a store with an empty catalog; call LoadProducts before
// serving it.
func New(opts Options) *Store {
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{
		backend:    opts.Backend,
		identity:   opts.Identity,
		publisher:  opts.Publisher,
		log:        lg.Named("shop"),
		categories: builtin.Categories,
	}
}
