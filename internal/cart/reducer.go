package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// State is the ordered list of cart lines. Insertion order is display order.
// Reduce never modifies the State it is given.
type State []domain.CartLine

// Action is a cart transition understood by Reduce.
type Action interface {
	apply(State) (State, bool)
}

// Add increments the line with the same id, or appends a new one. Qty 0
// means 1.
type Add struct {
	Line domain.CartLine
	Qty  int
}

// Increment raises a line quantity by Step (0 means 1).
type Increment struct {
	ID   string
	Step int
}

// Decrement lowers a line quantity by Step (0 means 1). Reaching zero removes
// the line.
type Decrement struct {
	ID   string
	Step int
}

// SetQuantity sets an absolute quantity; Qty <= 0 removes the line.
type SetQuantity struct {
	ID  string
	Qty int
}

type Remove struct {
	ID string
}

type Clear struct{}

// Reconcile refreshes name, price and image of lines whose product appears
// in Products. Lines for unknown products are kept as they are.
type Reconcile struct {
	Products []domain.Product
}

// Reduce applies a to s and reports whether anything changed.
func Reduce(s State, a Action) (State, bool) {
	if a == nil {
		return s, false
	}
	return a.apply(s)
}

func (a Add) apply(s State) (State, bool) {
	qty := a.Qty
	if qty == 0 {
		qty = 1
	}
	if i := s.index(a.Line.ID); i >= 0 {
		return s.withQuantity(i, s[i].Quantity+qty), true
	}
	if qty <= 0 {
		return s, false
	}
	line := a.Line
	line.Quantity = qty
	next := make(State, 0, len(s)+1)
	next = append(next, s...)
	return append(next, line), true
}

func (a Increment) apply(s State) (State, bool) {
	i := s.index(a.ID)
	if i < 0 {
		return s, false
	}
	return s.withQuantity(i, s[i].Quantity+step(a.Step)), true
}

func (a Decrement) apply(s State) (State, bool) {
	i := s.index(a.ID)
	if i < 0 {
		return s, false
	}
	return s.withQuantity(i, s[i].Quantity-step(a.Step)), true
}

func (a SetQuantity) apply(s State) (State, bool) {
	i := s.index(a.ID)
	if i < 0 || s[i].Quantity == a.Qty {
		return s, false
	}
	return s.withQuantity(i, a.Qty), true
}

func (a Remove) apply(s State) (State, bool) {
	i := s.index(a.ID)
	if i < 0 {
		return s, false
	}
	return s.without(i), true
}

func (Clear) apply(s State) (State, bool) {
	if len(s) == 0 {
		return s, false
	}
	return State{}, true
}

func (a Reconcile) apply(s State) (State, bool) {
	if len(s) == 0 || len(a.Products) == 0 {
		return s, false
	}
	byID := make(map[string]domain.Product, len(a.Products))
	for _, p := range a.Products {
		byID[p.ID] = p
	}

	next := s.clone()
	changed := false
	for i, line := range next {
		product, ok := byID[line.ProductID()]
		if !ok {
			continue
		}
		_, variant, _ := strings.Cut(line.ID, domain.LineIDSeparator)
		fresh := product.LineFor(variant)
		if fresh.Name == line.Name && fresh.ImageURL == line.ImageURL && fresh.Price.Equal(line.Price) {
			continue
		}
		next[i].Name = fresh.Name
		next[i].ImageURL = fresh.ImageURL
		next[i].Price = fresh.Price
		changed = true
	}
	if !changed {
		return s, false
	}
	return next, true
}

func step(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

func (s State) index(id string) int {
	for i, line := range s {
		if line.ID == id {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	out := make(State, len(s))
	copy(out, s)
	return out
}

// withQuantity returns a copy with line i set to qty, dropping the line when
// qty <= 0.
func (s State) withQuantity(i, qty int) State {
	if qty <= 0 {
		return s.without(i)
	}
	next := s.clone()
	next[i].Quantity = qty
	return next
}

func (s State) without(i int) State {
	next := make(State, 0, len(s)-1)
	next = append(next, s[:i]...)
	return append(next, s[i+1:]...)
}

// Count is the sum of line quantities.
func (s State) Count() int {
	n := 0
	for _, line := range s {
		n += line.Quantity
	}
	return n
}

// Total sums quantity×price over priced lines, rounded to cents. It is only
// the order total when HasUnpriced is false.
func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s {
		if sub, ok := line.Subtotal(); ok {
			total = total.Add(sub)
		}
	}
	return total.Round(2)
}

// HasUnpriced reports whether any line needs a quote.
func (s State) HasUnpriced() bool {
	for _, line := range s {
		if line.Price.IsQuote() {
			return true
		}
	}
	return false
}
