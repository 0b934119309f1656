package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrVariantRequired marks operations on an attributed product that need
// a variant selection and got none.
var ErrVariantRequired = errors.New("variant selection required")

// DefaultStockUnit is assumed when a product or stock entry carries no unit.
const DefaultStockUnit = "kg"

// fallbackMaxQty bounds quantity clamping when a stock entry reports no
// usable stock figure.
const fallbackMaxQty = 999

// Stock entries arrive as flat JSON objects mixing attribute keys with
// bookkeeping fields. These keys are never treated as attributes.
var reservedStockKeys = map[string]struct{}{
	"id":           {},
	"_id":          {},
	"price":        {},
	"priceToUser":  {},
	"vendorPrice":  {},
	"stock":        {},
	"displayStock": {},
	"stockUnit":    {},
	"unit":         {},
	"quantity":     {},
}

// AttributeStock is one sellable variant of a product: a set of attribute
// values plus its own pricing and stock figures.
type AttributeStock struct {
	Attributes   map[string]string `json:"attributes"`
	Price        int64             `json:"price"`
	VendorPrice  int64             `json:"vendorPrice"`
	Stock        int               `json:"stock"`
	DisplayStock int               `json:"displayStock"`
	Unit         string            `json:"unit"`
}

// BaseProduct carries the product-level figures used when no variant is
// selected.
type BaseProduct struct {
	Price        int64
	VendorPrice  int64
	Stock        int
	DisplayStock int
	Unit         string
}

// Selection maps attribute keys to chosen values.
type Selection map[string]string

// Quantities tracks desired quantity per selected variant, keyed by the
// canonical selection key.
type Quantities map[string]int

// Structure describes how a product's variants should be presented: which
// attribute acts as the variant name, the available names, and the
// remaining properties per name.
type Structure struct {
	NameKey    string                         `json:"nameKey"`
	Names      []string                       `json:"names"`
	Properties map[string]map[string][]string `json:"properties"`
}

// ParseAttributeStocks decodes the flat JSON array stored on a product into
// typed stock entries. Attribute values that arrive as arrays are
// normalised to their first element; numeric values are stringified.
func ParseAttributeStocks(raw []byte) ([]AttributeStock, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode attribute stocks: %w", err)
	}
	stocks := make([]AttributeStock, 0, len(entries))
	for _, entry := range entries {
		st := AttributeStock{Attributes: map[string]string{}}
		for key, value := range entry {
			if _, reserved := reservedStockKeys[key]; reserved {
				continue
			}
			if v := normalizeAttributeValue(value); v != "" {
				st.Attributes[key] = v
			}
		}
		st.Price = intField(entry, "priceToUser", "price")
		st.VendorPrice = intField(entry, "vendorPrice", "price")
		st.Stock = int(intField(entry, "stock"))
		st.DisplayStock = int(intField(entry, "displayStock"))
		st.Unit = stringField(entry, "stockUnit", "unit")
		stocks = append(stocks, st)
	}
	return stocks, nil
}

func normalizeAttributeValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		// legacy rows stored single values wrapped in arrays
		if len(v) == 0 {
			return ""
		}
		return normalizeAttributeValue(v[0])
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func intField(entry map[string]any, keys ...string) int64 {
	for _, key := range keys {
		if v, ok := entry[key].(float64); ok {
			return int64(v)
		}
		if v, ok := entry[key].(string); ok {
			if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func stringField(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := entry[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ResolveStructure derives the presentation structure for a set of stock
// entries. The name attribute is picked by heuristic: an explicitly
// name-like key when several attributes exist, otherwise the attribute
// with the most repeated distinct values. Iteration is over sorted keys so
// the result is deterministic.
func ResolveStructure(stocks []AttributeStock) Structure {
	out := Structure{Properties: map[string]map[string][]string{}}
	keys := attributeKeys(stocks)
	if len(keys) == 0 {
		return out
	}
	out.NameKey = pickNameKey(keys, stocks)

	nameSet := map[string]struct{}{}
	for _, st := range stocks {
		if name := st.Attributes[out.NameKey]; name != "" {
			nameSet[name] = struct{}{}
		}
	}
	out.Names = sortedKeys(nameSet)

	for _, name := range out.Names {
		props := map[string][]string{}
		for _, key := range keys {
			if key == out.NameKey {
				continue
			}
			valueSet := map[string]struct{}{}
			for _, st := range stocks {
				if st.Attributes[out.NameKey] != name {
					continue
				}
				if v := st.Attributes[key]; v != "" {
					valueSet[v] = struct{}{}
				}
			}
			if len(valueSet) > 0 {
				props[key] = sortedKeys(valueSet)
			}
		}
		out.Properties[name] = props
	}
	return out
}

func attributeKeys(stocks []AttributeStock) []string {
	set := map[string]struct{}{}
	for _, st := range stocks {
		for key := range st.Attributes {
			set[key] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func pickNameKey(keys []string, stocks []AttributeStock) string {
	for _, key := range keys {
		lower := strings.ToLower(key)
		// "type" is too generic to trust as the name axis unless the
		// product carries more than two attributes
		if strings.Contains(lower, "name") || strings.Contains(lower, "attribute") || (lower == "type" && len(keys) > 2) {
			return key
		}
	}
	// prefer the attribute with the most repeated distinct values; keys
	// whose every value is unique are grouping labels, not names
	bestKey := ""
	bestCount := 0
	for _, key := range keys {
		valueSet := map[string]struct{}{}
		for _, st := range stocks {
			if v := st.Attributes[key]; v != "" {
				valueSet[v] = struct{}{}
			}
		}
		count := len(valueSet)
		if count == 0 {
			continue
		}
		if len(stocks) > 1 && count == len(stocks) {
			continue
		}
		if count > bestCount {
			bestCount = count
			bestKey = key
		}
	}
	if bestKey != "" {
		return bestKey
	}
	return keys[0]
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Key returns the canonical identity of a selection: its JSON encoding
// with sorted keys. Two selections with the same pairs always produce the
// same key regardless of insertion order.
func (s Selection) Key() string {
	if len(s) == 0 {
		return "{}"
	}
	data, err := json.Marshal(map[string]string(s))
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Matches reports whether the stock entry satisfies every pair in the
// selection.
func (st AttributeStock) Matches(sel Selection) bool {
	if len(sel) == 0 {
		return false
	}
	for key, want := range sel {
		if st.Attributes[key] != want {
			return false
		}
	}
	return true
}

// FindStock returns the first stock entry matching the selection.
func FindStock(stocks []AttributeStock, sel Selection) (AttributeStock, bool) {
	for _, st := range stocks {
		if st.Matches(sel) {
			return st, true
		}
	}
	return AttributeStock{}, false
}

// MaxQty returns the largest purchasable quantity for a stock entry.
func (st AttributeStock) MaxQty() int {
	if st.DisplayStock > 0 {
		return st.DisplayStock
	}
	if st.Stock > 0 {
		return st.Stock
	}
	return fallbackMaxQty
}

// ClampQty bounds a requested quantity to [1, MaxQty].
func (st AttributeStock) ClampQty(qty int) int {
	if qty < 1 {
		return 1
	}
	if max := st.MaxQty(); qty > max {
		return max
	}
	return qty
}

// PriceFor returns the stock entry's unit price for a buyer role.
func (st AttributeStock) PriceFor(role string) int64 {
	if role == "vendor" {
		return st.VendorPrice
	}
	return st.Price
}

// PriceFor returns the product-level unit price for a buyer role.
func (p BaseProduct) PriceFor(role string) int64 {
	if role == "vendor" {
		return p.VendorPrice
	}
	return p.Price
}

// Toggle flips a variant's membership in the quantity map. Toggling an
// absent variant adds it with quantity 1; toggling a present one removes
// it.
func (q Quantities) Toggle(sel Selection, stocks []AttributeStock) {
	key := sel.Key()
	if _, ok := q[key]; ok {
		delete(q, key)
		return
	}
	st, found := FindStock(stocks, sel)
	if !found {
		return
	}
	q[key] = st.ClampQty(1)
}

// SetQty updates the quantity for an already selected variant, clamping to
// the variant's purchasable range.
func (q Quantities) SetQty(sel Selection, qty int, stocks []AttributeStock) {
	key := sel.Key()
	if _, ok := q[key]; !ok {
		return
	}
	st, found := FindStock(stocks, sel)
	if !found {
		delete(q, key)
		return
	}
	q[key] = st.ClampQty(qty)
}

// Resolution is the display state computed from the current variant
// selection.
type Resolution struct {
	Price        int64  `json:"price"`
	Stock        int    `json:"stock"`
	Unit         string `json:"unit"`
	Total        int64  `json:"total"`
	SelectedQty  int    `json:"selectedQty"`
	VariantCount int    `json:"variantCount"`
}

// Resolve computes price, stock, and unit for the current selection state.
// No selected variants falls back to the product-level figures; exactly
// one shows that variant; several shows the summed price across variants.
func Resolve(base BaseProduct, stocks []AttributeStock, q Quantities, role string) Resolution {
	type picked struct {
		stock AttributeStock
		qty   int
	}
	var selected []picked
	for key, qty := range q {
		var sel Selection
		if err := json.Unmarshal([]byte(key), (*map[string]string)(&sel)); err != nil {
			continue
		}
		st, found := FindStock(stocks, sel)
		if !found {
			continue
		}
		selected = append(selected, picked{stock: st, qty: qty})
	}

	switch len(selected) {
	case 0:
		unit := base.Unit
		if unit == "" {
			unit = DefaultStockUnit
		}
		stock := base.DisplayStock
		if stock == 0 {
			stock = base.Stock
		}
		price := base.PriceFor(role)
		return Resolution{Price: price, Stock: stock, Unit: unit, Total: price}
	case 1:
		st := selected[0].stock
		qty := selected[0].qty
		unit := st.Unit
		if unit == "" {
			unit = DefaultStockUnit
		}
		stock := st.DisplayStock
		if stock == 0 {
			stock = st.Stock
		}
		price := st.PriceFor(role)
		return Resolution{
			Price:        price,
			Stock:        stock,
			Unit:         unit,
			Total:        price * int64(qty),
			SelectedQty:  qty,
			VariantCount: 1,
		}
	default:
		var total int64
		var totalQty int
		var totalStock int
		unit := ""
		uniform := true
		for _, p := range selected {
			total += p.stock.PriceFor(role) * int64(p.qty)
			totalQty += p.qty
			if p.stock.DisplayStock > 0 {
				totalStock += p.stock.DisplayStock
			} else {
				totalStock += p.stock.Stock
			}
			u := p.stock.Unit
			if u == "" {
				u = DefaultStockUnit
			}
			if unit == "" {
				unit = u
			} else if unit != u {
				uniform = false
			}
		}
		if !uniform {
			unit = ""
		}
		return Resolution{
			Price:        total,
			Stock:        totalStock,
			Unit:         unit,
			Total:        total,
			SelectedQty:  totalQty,
			VariantCount: len(selected),
		}
	}
}
