package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// ListFilter narrows GET /products/.  Zero values are omitted.
type ListFilter struct {
	Category string
	Limit    int
}

// ListProducts calls GET /products/ with the filter as query parameters.
func (c *Client) ListProducts(ctx context.Context, f ListFilter) ([]model.Product, error) {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var ws []wireProduct
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/", query: q}, &ws); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(ws))
	for _, w := range ws {
		out = append(out, productFromWire(w))
	}
	return out, nil
}

// GetProduct accepts either the product id or its slug.
func (c *Client) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var w wireProduct
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + url.PathEscape(id)}, &w); err != nil {
		return model.Product{}, err
	}
	return productFromWire(w), nil
}

// CreateProduct calls POST /products/.  Details the backend did not keep
// are logged and the stored product is returned.
func (c *Client) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	var w wireProduct
	if err := c.do(ctx, request{method: http.MethodPost, path: "/products/", body: productToWire(p)}, &w); err != nil {
		return model.Product{}, err
	}
	return c.noteDroppedDetails(productFromWire(w), p), nil
}

// UpdateProduct calls PUT /products/:id with the full product.
func (c *Client) UpdateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	var w wireProduct
	path := "/products/" + url.PathEscape(p.ID)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, body: productToWire(p)}, &w); err != nil {
		return model.Product{}, err
	}
	return c.noteDroppedDetails(productFromWire(w), p), nil
}

// DeleteProduct removes a product.  The backend refuses to delete a
// product referenced by orders with 400 (older deployments) or 409; both
// surface as ErrConflict with the backend's explanation.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	err := c.do(ctx, request{method: http.MethodDelete, path: "/products/" + url.PathEscape(id)}, nil)
	return reclassify(err, ErrConflict, http.StatusBadRequest, http.StatusConflict)
}

// noteDroppedDetails logs when the backend dropped the attribute set the admin
// sent, so the gap is visible.  The returned product is the backend's.
func (c *Client) noteDroppedDetails(saved, sent model.Product) model.Product {
	if saved.Details.Empty() && !sent.Details.Empty() {
		c.log.Debug("backend did not echo product details; attributes not persisted")
	}
	return saved
}
