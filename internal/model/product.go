package model

import "github.com/shopspring/decimal"

// DefaultCurrency is the only currency the storefront prices in.
const DefaultCurrency = "INR"

var hundred = decimal.NewFromInt(100)

// ProductDetails holds the descriptive attributes collected by the admin
// form.  Gemstone and Weight are optional.
type ProductDetails struct {
	Material string `json:"material" yaml:"material"`
	Gemstone string `json:"gemstone,omitempty" yaml:"gemstone,omitempty"`
	Weight   string `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Empty reports whether no attribute is set.
func (d ProductDetails) Empty() bool {
	return d.Material == "" && d.Gemstone == "" && d.Weight == ""
}

// Product is the catalog entry as the UI sees it.
//
// InStock is the display flag.  Stock carries the last quantity read from
// the backend and is used to write a real quantity back instead of a
// placeholder when the product is saved while still in stock.
type Product struct {
	ID                 string          `json:"id" yaml:"id"`
	Slug               string          `json:"slug,omitempty" yaml:"slug,omitempty"`
	Name               string          `json:"name" yaml:"name"`
	Price              decimal.Decimal `json:"price" yaml:"price"`
	Currency           string          `json:"currency" yaml:"currency"`
	CategoryID         string          `json:"categoryId" yaml:"categoryId"`
	Image              string          `json:"image" yaml:"image"`
	Description        string          `json:"description" yaml:"description"`
	Details            ProductDetails  `json:"details" yaml:"details"`
	InStock            bool            `json:"inStock" yaml:"inStock"`
	Stock              int             `json:"stock,omitempty" yaml:"stock,omitempty"`
	IsNewArrival       bool            `json:"isNewArrival,omitempty" yaml:"isNewArrival,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage" yaml:"discountPercentage,omitempty"`
	IsHolidaySpecial   bool            `json:"isHolidaySpecial,omitempty" yaml:"isHolidaySpecial,omitempty"`
}

// Discounted reports whether a positive discount applies.
func (p Product) Discounted() bool { return p.DiscountPercentage.IsPositive() }

// EffectivePrice is the price after the percentage discount.  Every
// displayed or summed price goes through this method.
func (p Product) EffectivePrice() decimal.Decimal {
	if !p.Discounted() {
		return p.Price
	}
	factor := hundred.Sub(p.DiscountPercentage).Div(hundred)
	return p.Price.Mul(factor)
}

// ValidDiscount reports whether the discount is within 0–100.
func (p Product) ValidDiscount() bool {
	return !p.DiscountPercentage.IsNegative() && p.DiscountPercentage.LessThanOrEqual(hundred)
}
