package cart

import (
	"github.com/noah-isme/backend-mandi/internal/catalog"
	"github.com/noah-isme/backend-mandi/internal/pricing"
)

// Item is one cart entry as submitted by a client. UnitPrice wins when
// set; Price is the legacy field older clients still send. When both are
// zero the price is resolved from the product's variant stocks or its base
// price.
type Item struct {
	ProductID string            `json:"productId"`
	Name      string            `json:"name,omitempty"`
	Qty       int               `json:"qty"`
	UnitPrice pricing.Money     `json:"unitPrice,omitempty"`
	Price     pricing.Money     `json:"price,omitempty"`
	Selection catalog.Selection `json:"selection,omitempty"`
}

// ProductInfo is the catalog data needed to price a cart line.
type ProductInfo struct {
	Name   string
	Base   catalog.BaseProduct
	Stocks []catalog.AttributeStock
}

// QuotedItem is a priced cart line.
type QuotedItem struct {
	Name      string            `json:"name"`
	Selection catalog.Selection `json:"selection,omitempty"`
	Qty       int               `json:"qty"`
	UnitPrice pricing.Money     `json:"unitPrice"`
	LineTotal pricing.Money     `json:"lineTotal"`
}

// Group collects a product's cart lines with their subtotal.
type Group struct {
	ProductID string        `json:"productId"`
	Name      string        `json:"name"`
	Items     []QuotedItem  `json:"items"`
	Subtotal  pricing.Money `json:"subtotal"`
}

// Quote is the full cart computation result.
type Quote struct {
	Groups       []Group       `json:"groups"`
	Subtotal     pricing.Money `json:"subtotal"`
	DeliveryFee  pricing.Money `json:"deliveryFee"`
	Total        pricing.Money `json:"total"`
	MinOrder     pricing.Money `json:"minOrder"`
	Shortfall    pricing.Money `json:"shortfall"`
	MeetsMinimum bool          `json:"meetsMinimum"`
}

// Thresholds carries the configured order limits.
type Thresholds struct {
	FreeDelivery pricing.Money
	DeliveryFee  pricing.Money
	MinOrder     pricing.Money
}

// UnitPriceFor resolves a line's unit price: an explicit unit price wins,
// then the legacy price field, then the matching variant stock, then the
// product base price.
func UnitPriceFor(item Item, info ProductInfo, role string) pricing.Money {
	if item.UnitPrice > 0 {
		return item.UnitPrice
	}
	if item.Price > 0 {
		return item.Price
	}
	if len(item.Selection) > 0 {
		if st, ok := catalog.FindStock(info.Stocks, item.Selection); ok {
			return st.PriceFor(role)
		}
	}
	return info.Base.PriceFor(role)
}

// ComputeQuote groups cart items by product and computes totals. Unknown
// products price at zero, quantities floor at one, and the minimum order
// shortfall is reported against the computed total.
func ComputeQuote(items []Item, products map[string]ProductInfo, role string, limits Thresholds) Quote {
	groupIndex := map[string]int{}
	var groups []Group
	for _, item := range items {
		qty := item.Qty
		if qty < 1 {
			qty = 1
		}
		info := products[item.ProductID]
		unitPrice := UnitPriceFor(item, info, role)
		name := item.Name
		if name == "" {
			name = info.Name
		}
		quoted := QuotedItem{
			Name:      name,
			Selection: item.Selection,
			Qty:       qty,
			UnitPrice: unitPrice,
			LineTotal: unitPrice * pricing.Money(qty),
		}
		idx, ok := groupIndex[item.ProductID]
		if !ok {
			groups = append(groups, Group{ProductID: item.ProductID, Name: info.Name})
			idx = len(groups) - 1
			groupIndex[item.ProductID] = idx
		}
		if groups[idx].Name == "" {
			groups[idx].Name = name
		}
		groups[idx].Items = append(groups[idx].Items, quoted)
		groups[idx].Subtotal += quoted.LineTotal
	}
	var subtotal pricing.Money
	for _, g := range groups {
		subtotal += g.Subtotal
	}
	delivery := limits.DeliveryFee
	if subtotal >= limits.FreeDelivery || subtotal == 0 {
		delivery = 0
	}
	total := subtotal + delivery

	quote := Quote{
		Groups:      groups,
		Subtotal:    subtotal,
		DeliveryFee: delivery,
		Total:       total,
		MinOrder:    limits.MinOrder,
	}
	if total >= limits.MinOrder {
		quote.MeetsMinimum = true
	} else {
		quote.Shortfall = limits.MinOrder - total
	}
	return quote
}
