package shop

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/session"
)

// CheckoutRequest is what the checkout form collects besides the cart.
// Payment is always cash on delivery.
type CheckoutRequest struct {
	CustomerName    string                `json:"customerName"`
	Phone           string                `json:"phone"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
}

func (r CheckoutRequest) validate() error {
	var missing []string
	if strings.TrimSpace(r.CustomerName) == "" {
		missing = append(missing, "customerName")
	}
	if strings.TrimSpace(r.Phone) == "" {
		missing = append(missing, "phone")
	}
	missing = append(missing, r.ShippingAddress.Missing()...)
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCheckout, strings.Join(missing, ", "))
	}
	return nil
}

// PlaceOrder submits the cart as a cash-on-delivery order.  Only product
// ids and quantities are sent; the backend prices the order.  Once the
// backend accepted it the submitted quantities leave the cart; lines added
// or raised while the request was in flight stay.  On failure the cart is
// left intact.
func (s *Store) PlaceOrder(ctx context.Context, req CheckoutRequest) (model.Order, error) {
	user, ok := s.identity.User()
	if !ok || !s.identity.Authenticated() {
		return model.Order{}, session.ErrNotAuthenticated
	}
	items := s.Cart()
	if len(items) == 0 {
		return model.Order{}, ErrEmptyCart
	}
	if err := req.validate(); err != nil {
		return model.Order{}, err
	}

	addr := req.ShippingAddress
	order, err := s.backend.PlaceOrder(ctx, gateway.OrderRequest{
		Items:           items,
		ShippingAddress: &addr,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Phone:           strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return model.Order{}, err
	}
	s.removeOrdered(items)
	s.log.Info("order placed",
		zap.String("order_id", order.ID), zap.String("user_id", user.ID),
		zap.Int("lines", len(items)), zap.String("total", order.TotalAmount.String()))

	s.omu.Lock()
	s.orders = append([]model.Order{order}, s.orders...)
	s.omu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.OrderPlaced(ctx, order, user); err != nil {
			s.log.Warn("publish order.placed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return order, nil
}

// ListOrders fetches the orders the backend shows this user: all of them
// for an admin, the user's own otherwise.
func (s *Store) ListOrders(ctx context.Context) ([]model.Order, error) {
	if !s.identity.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	orders, err := s.backend.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	s.omu.Lock()
	s.orders = orders
	s.omu.Unlock()
	return append([]model.Order(nil), orders...), nil
}

// ForgetOrders drops the cached order list; it belongs to the user who
// fetched it.
func (s *Store) ForgetOrders() {
	s.omu.Lock()
	s.orders = nil
	s.omu.Unlock()
}

func (s *Store) cachedOrder(id string) (model.Order, bool) {
	s.omu.RLock()
	defer s.omu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

// AdvanceOrder moves order id to status to.  Only the next forward step
// or cancellation is allowed; anything else fails with
// ErrInvalidTransition before the backend is called.
func (s *Store) AdvanceOrder(ctx context.Context, id string, to model.OrderStatus) (model.Order, error) {
	unlock := s.locks.Lock("order:" + id)
	defer unlock()

	cur, ok := s.cachedOrder(id)
	if !ok {
		if _, err := s.ListOrders(ctx); err != nil {
			return model.Order{}, err
		}
		if cur, ok = s.cachedOrder(id); !ok {
			return model.Order{}, ErrOrderNotFound
		}
	}
	if !cur.Status.CanTransition(to) {
		return model.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, cur.Status, to)
	}

	saved, err := s.backend.UpdateOrderStatus(ctx, id, to)
	if err != nil {
		return model.Order{}, err
	}
	s.omu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i] = saved
		}
	}
	s.omu.Unlock()
	s.log.Info("order status changed",
		zap.String("order_id", id), zap.String("from", string(cur.Status)), zap.String("to", string(to)))
	return saved, nil
}
