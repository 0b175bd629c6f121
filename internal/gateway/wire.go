package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// DefaultStockQuantity is written for an in-stock product whose real
// quantity is unknown (created in the admin form, or read as 0 and then
// flipped back on).
const DefaultStockQuantity = 10

// wireDecimal encodes as a bare JSON number; the backend's float fields
// reject quoted strings.
type wireDecimal struct{ decimal.Decimal }

func (d wireDecimal) MarshalJSON() ([]byte, error) { return []byte(d.Decimal.String()), nil }

// wireTime accepts RFC 3339 and the zone-less ISO timestamps the backend
// emits for naive datetimes (treated as UTC).
type wireTime struct{ time.Time }

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" || string(b) == `""` {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = ts
		return nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = ts
			return nil
		}
	}
	return fmt.Errorf("gateway: unrecognised timestamp %q", s)
}

func (t wireTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ----- users -----

type wireUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    *string  `json:"full_name"`
	Role        string   `json:"role"`
	PhoneNumber *string  `json:"phone_number"`
	Address     *string  `json:"address"`
	IsActive    bool     `json:"is_active"`
	CreatedAt   wireTime `json:"created_at"`
}

func userFromWire(w wireUser) model.User {
	role := strings.ToLower(w.Role)
	if role == "" {
		role = model.RoleCustomer
	}
	return model.User{
		ID:        w.ID,
		Email:     w.Email,
		Name:      deref(w.FullName),
		Role:      role,
		Phone:     deref(w.PhoneNumber),
		Address:   deref(w.Address),
		CreatedAt: w.CreatedAt.Time,
	}
}

// ProfileUpdate is a partial profile edit; nil fields are not sent.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone_number,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Address == nil
}

type wireUserUpdate struct {
	FullName    *string `json:"full_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
}

func (p ProfileUpdate) toWire() wireUserUpdate {
	return wireUserUpdate{FullName: p.Name, Email: p.Email, PhoneNumber: p.Phone, Address: p.Address}
}

type wireSignup struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// ----- products -----

type wireProduct struct {
	ID                 string                `json:"id,omitempty"`
	Slug               string                `json:"slug,omitempty"`
	Name               string                `json:"name"`
	Description        *string               `json:"description"`
	Price              wireDecimal           `json:"price"`
	DiscountPercentage wireDecimal           `json:"discount_percentage"`
	ImageURL           *string               `json:"image_url"`
	Category           *string               `json:"category"`
	Stock              int                   `json:"stock"`
	IsFeatured         bool                  `json:"is_featured"`
	IsHolidaySpecial   bool                  `json:"is_holiday_special"`
	Details            *model.ProductDetails `json:"details,omitempty"`
}

func productFromWire(w wireProduct) model.Product {
	p := model.Product{
		ID:                 w.ID,
		Slug:               w.Slug,
		Name:               w.Name,
		Price:              w.Price.Decimal,
		Currency:           model.DefaultCurrency,
		CategoryID:         deref(w.Category),
		Image:              deref(w.ImageURL),
		Description:        deref(w.Description),
		InStock:            w.Stock > 0,
		Stock:              w.Stock,
		IsNewArrival:       w.IsFeatured,
		DiscountPercentage: w.DiscountPercentage.Decimal,
		IsHolidaySpecial:   w.IsHolidaySpecial,
	}
	if w.Details != nil {
		p.Details = *w.Details
	}
	return p
}

// stockFor encodes InStock as the backend's integer quantity.  A product
// still in stock keeps the quantity it was read with.
func stockFor(p model.Product) int {
	if !p.InStock {
		return 0
	}
	if p.Stock > 0 {
		return p.Stock
	}
	return DefaultStockQuantity
}

func productToWire(p model.Product) wireProduct {
	w := wireProduct{
		Slug:               p.Slug,
		Name:               p.Name,
		Description:        &p.Description,
		Price:              wireDecimal{p.Price},
		DiscountPercentage: wireDecimal{p.DiscountPercentage},
		ImageURL:           &p.Image,
		Category:           &p.CategoryID,
		Stock:              stockFor(p),
		IsFeatured:         p.IsNewArrival,
		IsHolidaySpecial:   p.IsHolidaySpecial,
	}
	if !p.Details.Empty() {
		d := p.Details
		w.Details = &d
	}
	return w
}

// ----- orders -----

type wireOrderItemCreate struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type wireOrderCreate struct {
	Items           []wireOrderItemCreate  `json:"items"`
	ShippingAddress *model.ShippingAddress `json:"shipping_address,omitempty"`
	CustomerName    string                 `json:"customer_name"`
	Phone           string                 `json:"phone"`
}

type wireOrderItem struct {
	ID              string      `json:"id"`
	ProductID       string      `json:"product_id"`
	Quantity        int         `json:"quantity"`
	PriceAtPurchase wireDecimal `json:"price_at_purchase"`
}

type wireOrder struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	CustomerName    *string                `json:"customer_name"`
	Phone           *string                `json:"phone"`
	PaymentMethod   *string                `json:"payment_method"`
	Status          string                 `json:"status"`
	TotalAmount     wireDecimal            `json:"total_amount"`
	CreatedAt       wireTime               `json:"created_at"`
	Items           []wireOrderItem        `json:"items"`
	ShippingAddress *model.ShippingAddress `json:"shipping_address"`
}

func orderFromWire(w wireOrder) model.Order {
	o := model.Order{
		ID:              w.ID,
		UserID:          w.UserID,
		CustomerName:    deref(w.CustomerName),
		Phone:           deref(w.Phone),
		PaymentMethod:   deref(w.PaymentMethod),
		Status:          model.OrderStatus(strings.ToLower(w.Status)),
		TotalAmount:     w.TotalAmount.Decimal,
		Currency:        model.DefaultCurrency,
		CreatedAt:       w.CreatedAt.Time,
		Items:           make([]model.OrderItem, 0, len(w.Items)),
		ShippingAddress: w.ShippingAddress,
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = model.PaymentMethodCOD
	}
	for _, it := range w.Items {
		o.Items = append(o.Items, model.OrderItem{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.Decimal,
		})
	}
	return o
}

// ----- addresses -----

type wireAddress struct {
	ID        string   `json:"id,omitempty"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Country   string   `json:"country"`
	IsDefault *bool    `json:"is_default"`
	CreatedAt wireTime `json:"created_at,omitempty"`
}

func addressFromWire(w wireAddress) model.Address {
	a := model.Address{
		ID:        w.ID,
		Street:    w.Street,
		City:      w.City,
		State:     w.State,
		Zip:       w.Zip,
		Country:   w.Country,
		CreatedAt: w.CreatedAt.Time,
	}
	if w.IsDefault != nil {
		a.IsDefault = *w.IsDefault
	}
	return a
}

// addressPayload is the create/update body; it carries no id or timestamp.
type addressPayload struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

func addressToWire(a model.Address) addressPayload {
	return addressPayload{
		Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country,
		IsDefault: a.IsDefault,
	}
}
