package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

const addressesPath = "/users/me/addresses"

// ListAddresses calls GET /users/me/addresses.
func (c *Client) ListAddresses(ctx context.Context) ([]model.Address, error) {
	var ws []wireAddress
	if err := c.do(ctx, request{method: http.MethodGet, path: addressesPath}, &ws); err != nil {
		return nil, err
	}
	out := make([]model.Address, 0, len(ws))
	for _, w := range ws {
		out = append(out, addressFromWire(w))
	}
	return out, nil
}

// CreateAddress calls POST /users/me/addresses.
func (c *Client) CreateAddress(ctx context.Context, a model.Address) (model.Address, error) {
	var w wireAddress
	if err := c.do(ctx, request{method: http.MethodPost, path: addressesPath, body: addressToWire(a)}, &w); err != nil {
		return model.Address{}, err
	}
	return addressFromWire(w), nil
}

// UpdateAddress calls PUT /users/me/addresses/:id.
func (c *Client) UpdateAddress(ctx context.Context, a model.Address) (model.Address, error) {
	var w wireAddress
	path := addressesPath + "/" + url.PathEscape(a.ID)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, body: addressToWire(a)}, &w); err != nil {
		return model.Address{}, err
	}
	return addressFromWire(w), nil
}

// DeleteAddress calls DELETE /users/me/addresses/:id.
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: addressesPath + "/" + url.PathEscape(id)}, nil)
}
