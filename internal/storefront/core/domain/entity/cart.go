package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	// ErrLineNotFound is returned when mutating a product id with no line.
	ErrLineNotFound = errors.New("cart: line not found")
)

// StockExceededError is the user-facing rejection produced when a requested
// quantity would exceed the stock recorded in the line's product snapshot.
// The cart is left untouched.
type StockExceededError struct {
	ProductID int64
	Name      string
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available", e.Name, e.Available)
}

// CartLine is a product snapshot denormalised at add-time plus the requested
// quantity. The snapshot is intentionally stale: stock checks run against the
// stock seen when the line was created, the backend revalidates at invoice
// time.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price × quantity for this line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart maps product ids to lines. Display order follows insertion order and
// survives a serialise/rehydrate round trip.
type Cart struct {
	lines map[int64]*CartLine
	order []int64
}

func NewCart() *Cart {
	return &Cart{lines: make(map[int64]*CartLine)}
}

// AddItem inserts a line for the product or increments an existing one.
// The cumulative quantity is checked against the snapshot stock; on failure
// nothing is mutated and a *StockExceededError is returned.
func (c *Cart) AddItem(p Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if line, ok := c.lines[p.ID]; ok {
		next := line.Quantity + quantity
		if next > line.Stock {
			return &StockExceededError{ProductID: p.ID, Name: line.Name, Available: line.Stock}
		}
		line.Quantity = next
		return nil
	}
	if quantity > p.Stock {
		return &StockExceededError{ProductID: p.ID, Name: p.Name, Available: p.Stock}
	}
	c.lines[p.ID] = &CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Image:     p.ImageURI(),
		Quantity:  quantity,
	}
	c.order = append(c.order, p.ID)
	return nil
}

// UpdateQuantity overwrites a line's quantity. The previous quantity is kept
// when the new one exceeds the recorded stock.
func (c *Cart) UpdateQuantity(productID int64, quantity int) error {
	line, ok := c.lines[productID]
	if !ok {
		return ErrLineNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > line.Stock {
		return &StockExceededError{ProductID: productID, Name: line.Name, Available: line.Stock}
	}
	line.Quantity = quantity
	return nil
}

// RemoveItem deletes the line unconditionally. Removing an absent line is a
// no-op.
func (c *Cart) RemoveItem(productID int64) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart. The persisted snapshot is evicted by the store
// layer, not here.
func (c *Cart) Clear() {
	c.lines = make(map[int64]*CartLine)
	c.order = nil
}

// Total is the sum of price × quantity over all lines, recomputed on every
// call so it can never drift from the lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// TotalItems is the unit count across all lines, used for the cart badge.
func (c *Cart) TotalItems() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

// Len is the number of distinct lines.
func (c *Cart) Len() int { return len(c.lines) }

// Line returns the line for a product id, if present.
func (c *Cart) Line(productID int64) (CartLine, bool) {
	line, ok := c.lines[productID]
	if !ok {
		return CartLine{}, false
	}
	return *line, true
}

// Lines returns the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// cartSnapshot is the wire form of a cart. An ordered array rather than a
// JSON object so insertion order survives the round trip.
type cartSnapshot struct {
	Lines []CartLine `json:"lines"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartSnapshot{Lines: c.Lines()})
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var snap cartSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}
	c.lines = make(map[int64]*CartLine, len(snap.Lines))
	c.order = c.order[:0]
	for i := range snap.Lines {
		line := snap.Lines[i]
		if _, dup := c.lines[line.ProductID]; dup {
			continue
		}
		c.lines[line.ProductID] = &line
		c.order = append(c.order, line.ProductID)
	}
	return nil
}
