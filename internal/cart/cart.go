// Package cart holds the shopping cart: a pure reducer over line items and a
// Store that persists every change to local storage.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/five82/folio/internal/api"
)

// Item is one cart line. Title, price and stock are snapshots taken when the
// book was first added.
type Item struct {
	BookID    int64           `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// State is the whole cart. Items keeps insertion order.
type State struct {
	Items []Item `json:"items"`
}

// ItemFromBook snapshots a catalog book as a line item priced at its sale price.
func ItemFromBook(b api.Book) Item {
	return Item{
		BookID:    b.ID,
		Title:     b.Title,
		Author:    b.Author,
		UnitPrice: b.SalePrice(),
		ImageURL:  b.CoverURL,
		Stock:     b.Stock,
	}
}

// Action is a cart mutation understood by Reduce.
type Action interface {
	isAction()
}

// Add puts one more copy of Item in the cart.
type Add struct{ Item Item }

// Remove drops the line for BookID.
type Remove struct{ BookID int64 }

// SetQuantity sets the quantity of BookID. N below 1 removes the line.
type SetQuantity struct {
	BookID int64
	N      int
}

// Clear empties the cart.
type Clear struct{}

func (Add) isAction()         {}
func (Remove) isAction()      {}
func (SetQuantity) isAction() {}
func (Clear) isAction()       {}

// Reduce applies a to s and returns the new state. s is not modified.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case Add:
		items := cloneItems(s.Items)
		if idx := indexOf(items, act.Item.BookID); idx >= 0 {
			items[idx].Quantity++
			return State{Items: items}
		}
		item := act.Item
		item.Quantity = 1
		return State{Items: append(items, item)}

	case Remove:
		idx := indexOf(s.Items, act.BookID)
		if idx < 0 {
			return State{Items: cloneItems(s.Items)}
		}
		items := make([]Item, 0, len(s.Items)-1)
		items = append(items, s.Items[:idx]...)
		items = append(items, s.Items[idx+1:]...)
		return State{Items: items}

	case SetQuantity:
		if act.N < 1 {
			return Reduce(s, Remove{BookID: act.BookID})
		}
		items := cloneItems(s.Items)
		if idx := indexOf(items, act.BookID); idx >= 0 {
			items[idx].Quantity = act.N
		}
		return State{Items: items}

	case Clear:
		return State{Items: []Item{}}
	}
	return State{Items: cloneItems(s.Items)}
}

// TotalItems returns the sum of quantities.
func (s State) TotalItems() int {
	total := 0
	for _, it := range s.Items {
		total += it.Quantity
	}
	return total
}

// TotalPrice returns the sum of line subtotals.
func (s State) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Quantity returns the quantity held for bookID.
func (s State) Quantity(bookID int64) int {
	if idx := indexOf(s.Items, bookID); idx >= 0 {
		return s.Items[idx].Quantity
	}
	return 0
}

// CanAdd reports whether one more copy of item fits within its stock. The
// reducer itself never clamps; callers check before dispatching.
func (s State) CanAdd(item Item) bool {
	stock := item.Stock
	if idx := indexOf(s.Items, item.BookID); idx >= 0 {
		stock = s.Items[idx].Stock
	}
	return s.Quantity(item.BookID)+1 <= stock
}

// OrderRequest converts the cart into a create-order body.
func (s State) OrderRequest() api.CreateOrderRequest {
	lines := make([]api.OrderLine, 0, len(s.Items))
	for _, it := range s.Items {
		lines = append(lines, api.NewOrderLine(it.BookID, it.Quantity, it.UnitPrice))
	}
	return api.CreateOrderRequest{Items: lines}
}

func indexOf(items []Item, bookID int64) int {
	for i, it := range items {
		if it.BookID == bookID {
			return i
		}
	}
	return -1
}

func cloneItems(items []Item) []Item {
	dup := make([]Item, len(items))
	copy(dup, items)
	return dup
}
