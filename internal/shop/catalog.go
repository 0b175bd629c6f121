package shop

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/model"
)

//go:embed catalog.yaml
var catalogYAML []byte

type builtinCatalog struct {
	Categories []model.Category `yaml:"categories"`
	Products   []model.Product  `yaml:"products"`
}

var builtin = mustParseCatalog(catalogYAML)

func mustParseCatalog(b []byte) builtinCatalog {
	var c builtinCatalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		panic(fmt.Sprintf("shop: embedded catalog: %v", err))
	}
	return c
}

// FallbackProducts returns a copy of the built-in product list.
func FallbackProducts() []model.Product {
	return append([]model.Product(nil), builtin.Products...)
}

// LoadProducts replaces the catalog with the backend's list.  Any failure
// switches to the built-in list instead of surfacing an error, so the
// storefront is never empty; Degraded reports which one is showing.
// Local stock toggles are discarded either way.
func (s *Store) LoadProducts(ctx context.Context) {
	ps, err := s.backend.ListProducts(ctx, gateway.ListFilter{})
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("product list unavailable, serving built-in catalog", zap.Error(err))
		s.products = FallbackProducts()
		s.degraded = true
		return
	}
	s.products = ps
	s.degraded = false
	s.log.Info("catalog loaded", zap.Int("products", len(ps)))
}

// Degraded reports whether the built-in list is being served.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

func validateProduct(p model.Product) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	}
	if !p.ValidDiscount() {
		problems = append(problems, "discount must be between 0 and 100")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, "; "))
	}
	return nil
}

// CreateProduct saves p on the backend and, on success, puts the saved
// product at the front of the list.
func (s *Store) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	if err := validateProduct(p); err != nil {
		return model.Product{}, err
	}
	if p.Currency == "" {
		p.Currency = model.DefaultCurrency
	}
	saved, err := s.backend.CreateProduct(ctx, p)
	if err != nil {
		return model.Product{}, err
	}
	s.mu.Lock()
	s.products = append([]model.Product{saved}, s.products...)
	s.mu.Unlock()
	s.log.Info("product created", zap.String("product_id", saved.ID))
	return saved, nil
}

// UpdateProduct saves p on the backend and replaces the local entry with
// the backend's answer.  When p carries no quantity, the last quantity
// read for it is sent so an unchanged in-stock product keeps its count.
func (s *Store) UpdateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	if p.ID == "" {
		return model.Product{}, fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if err := validateProduct(p); err != nil {
		return model.Product{}, err
	}
	unlock := s.locks.Lock(p.ID)
	defer unlock()

	if p.Stock == 0 {
		if cur, ok := s.Product(p.ID); ok {
			p.Stock = cur.Stock
		}
	}
	saved, err := s.backend.UpdateProduct(ctx, p)
	if err != nil {
		return model.Product{}, err
	}
	s.replace(saved)
	s.log.Info("product updated", zap.String("product_id", saved.ID))
	return saved, nil
}

// DeleteProduct removes id on the backend, then locally.  A product that
// existing orders reference comes back as gateway.ErrConflict and stays
// in the list.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	out := s.products[:0:0]
	for _, p := range s.products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	s.products = out
	s.mu.Unlock()
	s.log.Info("product deleted", zap.String("product_id", id))
	return nil
}

// SetStock persists an availability change through a product update.
func (s *Store) SetStock(ctx context.Context, id string, inStock bool) (model.Product, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cur, ok := s.Product(id)
	if !ok {
		return model.Product{}, ErrProductNotFound
	}
	cur.InStock = inStock
	saved, err := s.backend.UpdateProduct(ctx, cur)
	if err != nil {
		return model.Product{}, err
	}
	s.replace(saved)
	return saved, nil
}

// ToggleStock flips the in-stock flag of the local copy only.
func (s *Store) ToggleStock(id string) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].InStock = !s.products[i].InStock
			return s.products[i], nil
		}
	}
	return model.Product{}, ErrProductNotFound
}

func (s *Store) replace(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			return
		}
	}
}

// ----- reads -----

func (s *Store) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Product(nil), s.products...)
}

// Product looks a product up by id, then by slug.
func (s *Store) Product(idOrSlug string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == idOrSlug {
			return p, true
		}
	}
	for _, p := range s.products {
		if p.Slug != "" && p.Slug == idOrSlug {
			return p, true
		}
	}
	return model.Product{}, false
}

func (s *Store) filter(keep func(model.Product) bool) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0)
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) ProductsByCategory(categoryID string) []model.Product {
	return s.filter(func(p model.Product) bool { return p.CategoryID == categoryID })
}

func (s *Store) NewArrivals() []model.Product {
	return s.filter(func(p model.Product) bool { return p.IsNewArrival })
}

func (s *Store) HolidaySpecials() []model.Product {
	return s.filter(func(p model.Product) bool { return p.IsHolidaySpecial })
}

func (s *Store) Categories() []model.Category {
	return append([]model.Category(nil), s.categories...)
}

// Category looks a category up by id or slug.
func (s *Store) Category(idOrSlug string) (model.Category, bool) {
	for _, c := range s.categories {
		if c.ID == idOrSlug || c.Slug == idOrSlug {
			return c, true
		}
	}
	return model.Category{}, false
}
