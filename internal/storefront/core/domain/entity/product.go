package entity

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PlaceholderImage is served for products whose backend row carries no
// image payload.
const PlaceholderImage = "https://via.placeholder.com/150x150?text=Sin+Imagen"

// Product is the catalog row as the backend returns it. Prices are decimal
// currency with two places; the backend may encode them as JSON numbers or
// strings, both of which decimal.Decimal accepts.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Supplier    string          `json:"supplier,omitempty"`
	Image       *ImagePayload   `json:"image,omitempty"`
}

// ImageURI returns an inline data URI for the product image, or the
// placeholder when the backend sent no payload.
func (p Product) ImageURI() string {
	if p.Image == nil || len(p.Image.Data) == 0 {
		return PlaceholderImage
	}
	return p.Image.DataURI()
}

// ImagePayload is the binary image blob attached to a product. The backend
// serialises it the way Node serialises a Buffer:
//
//	{"type":"Buffer","data":[255,216,...]}
//
// A plain base64 string is accepted too.
type ImagePayload struct {
	Data []byte
}

func (ip *ImagePayload) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		ip.Data = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return err
		}
		ip.Data = data
		return nil
	}
	// encoding/json decodes []byte from base64 strings, not numeric arrays,
	// so the Buffer form goes through []int.
	var raw struct {
		Data []int `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data := make([]byte, len(raw.Data))
	for i, v := range raw.Data {
		data[i] = byte(v)
	}
	ip.Data = data
	return nil
}

func (ip ImagePayload) MarshalJSON() ([]byte, error) {
	if len(ip.Data) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(base64.StdEncoding.EncodeToString(ip.Data))
}

// DataURI encodes the payload as an inline image reference renderable by a
// browser.
func (ip ImagePayload) DataURI() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(ip.Data)
}

// FilterProducts returns the products whose name or description contains the
// search term, case-insensitively. An empty term returns the full list.
func FilterProducts(products []Product, term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

// SupplierSummary aggregates the catalog per supplier. The backend has no
// supplier resource; the view is derived from products, with stock under 10
// counted as low.
type SupplierSummary struct {
	Name          string          `json:"name"`
	TotalProducts int             `json:"total_products"`
	TotalStock    int             `json:"total_stock"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	LowStockCount int             `json:"low_stock_count"`
}

// SupplierSummaries groups products by supplier name. Products without a
// supplier are grouped under "Sin Proveedor". Output is sorted by product
// count descending, then name, so the listing is stable.
func SupplierSummaries(products []Product) []SupplierSummary {
	byName := make(map[string]*SupplierSummary)
	for _, p := range products {
		name := p.Supplier
		if name == "" {
			name = "Sin Proveedor"
		}
		s, ok := byName[name]
		if !ok {
			s = &SupplierSummary{Name: name}
			byName[name] = s
		}
		s.TotalProducts++
		s.TotalStock += p.Stock
		s.TotalValue = s.TotalValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
		if p.Stock < 10 {
			s.LowStockCount++
		}
	}
	out := make([]SupplierSummary, 0, len(byName))
	for _, s := range byName {
		if s.TotalStock > 0 {
			s.AvgPrice = s.TotalValue.Div(decimal.NewFromInt(int64(s.TotalStock))).Round(2)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalProducts != out[j].TotalProducts {
			return out[i].TotalProducts > out[j].TotalProducts
		}
		return out[i].Name < out[j].Name
	})
	return out
}
