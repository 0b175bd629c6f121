package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// OrderRequest is a cash-on-delivery order built from the cart.
type OrderRequest struct {
	Items           []model.CartItem
	ShippingAddress *model.ShippingAddress
	CustomerName    string
	Phone           string
}

// ListOrders returns every order for admins and the caller's own orders
// otherwise; the backend decides which.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var ws []wireOrder
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/"}, &ws); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(ws))
	for _, w := range ws {
		out = append(out, orderFromWire(w))
	}
	return out, nil
}

// PlaceOrder submits only product ids and quantities; the backend prices
// the order itself.
func (c *Client) PlaceOrder(ctx context.Context, r OrderRequest) (model.Order, error) {
	body := wireOrderCreate{
		Items:           make([]wireOrderItemCreate, 0, len(r.Items)),
		ShippingAddress: r.ShippingAddress,
		CustomerName:    r.CustomerName,
		Phone:           r.Phone,
	}
	for _, it := range r.Items {
		body.Items = append(body.Items, wireOrderItemCreate{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	var w wireOrder
	if err := c.do(ctx, request{method: http.MethodPost, path: "/orders/", body: body}, &w); err != nil {
		return model.Order{}, err
	}
	return orderFromWire(w), nil
}

// UpdateOrderStatus sets an order's status (admin only).  The status
// travels as a query parameter.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error) {
	q := url.Values{}
	q.Set("status", string(status))
	var w wireOrder
	req := request{method: http.MethodPatch, path: "/orders/" + url.PathEscape(id) + "/status", query: q}
	if err := c.do(ctx, req, &w); err != nil {
		return model.Order{}, err
	}
	return orderFromWire(w), nil
}
