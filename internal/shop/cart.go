package shop

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// AddToCart adds one unit of p: a new line with quantity 1, or +1 on the
// existing line.  The line keeps a snapshot of p for display.  The cart
// opens as a side effect.
func (s *Store) AddToCart(p model.Product) model.CartItem {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	s.cartOpen = true
	for i := range s.cart {
		if s.cart[i].ProductID == p.ID {
			s.cart[i].Quantity++
			return s.cart[i]
		}
	}
	item := model.CartItem{ProductID: p.ID, Quantity: 1, Product: p}
	s.cart = append(s.cart, item)
	return item
}

// RemoveFromCart drops the line for productID, if any.
func (s *Store) RemoveFromCart(productID string) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	for i := range s.cart {
		if s.cart[i].ProductID == productID {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			return
		}
	}
}

// UpdateQuantity adds delta to the line's quantity, never going below 1.
// It does not remove lines; the bool is false when there is no line.
func (s *Store) UpdateQuantity(productID string, delta int) (model.CartItem, bool) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	for i := range s.cart {
		if s.cart[i].ProductID == productID {
			s.cart[i].Quantity = max(1, s.cart[i].Quantity+delta)
			return s.cart[i], true
		}
	}
	return model.CartItem{}, false
}

func (s *Store) ClearCart() {
	s.cmu.Lock()
	s.cart = nil
	s.cmu.Unlock()
}

// removeOrdered takes the ordered quantities out of the cart.  A line is
// dropped when nothing beyond the ordered quantity is left on it.
func (s *Store) removeOrdered(ordered []model.CartItem) {
	qty := make(map[string]int, len(ordered))
	for _, it := range ordered {
		qty[it.ProductID] += it.Quantity
	}
	s.cmu.Lock()
	defer s.cmu.Unlock()
	kept := s.cart[:0]
	for _, it := range s.cart {
		it.Quantity -= qty[it.ProductID]
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	s.cart = kept
}

// ToggleCart sets the cart visibility to *open, or flips it when open is
// nil, and returns the new state.
func (s *Store) ToggleCart(open *bool) bool {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if open != nil {
		s.cartOpen = *open
	} else {
		s.cartOpen = !s.cartOpen
	}
	return s.cartOpen
}

func (s *Store) CartOpen() bool {
	s.cmu.RLock()
	defer s.cmu.RUnlock()
	return s.cartOpen
}

// Cart returns the lines in insertion order.
func (s *Store) Cart() []model.CartItem {
	s.cmu.RLock()
	defer s.cmu.RUnlock()
	return append([]model.CartItem{}, s.cart...)
}

func (s *Store) Subtotal() decimal.Decimal {
	s.cmu.RLock()
	defer s.cmu.RUnlock()
	return model.Subtotal(s.cart)
}

func (s *Store) ItemCount() int {
	s.cmu.RLock()
	defer s.cmu.RUnlock()
	return model.ItemCount(s.cart)
}
