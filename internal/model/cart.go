package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidOwner = errors.New("cart owner must be exactly one of guest or user")

// OwnerRef scopes a cart to a guest or to a user, never both.
type OwnerRef struct {
	GuestID string
	UserID  string
}

func GuestOwner(guestID string) OwnerRef { return OwnerRef{GuestID: guestID} }

func UserOwner(userID string) OwnerRef { return OwnerRef{UserID: userID} }

func (o OwnerRef) IsGuest() bool { return o.UserID == "" && o.GuestID != "" }

func (o OwnerRef) IsUser() bool { return o.UserID != "" && o.GuestID == "" }

func (o OwnerRef) Validate() error {
	if o.IsGuest() || o.IsUser() {
		return nil
	}
	return ErrInvalidOwner
}

func (o OwnerRef) String() string {
	if o.IsUser() {
		return "user:" + o.UserID
	}
	return "guest:" + o.GuestID
}

type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

type CartLine struct {
	ProductID string
	Name      string
	Size      string
	Color     string
	Quantity  int
	Price     decimal.Decimal
	Image     string
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Validate checks the constraints a line must satisfy before it is sent.
func (l CartLine) Validate() error {
	if l.ProductID == "" {
		return errors.New("product id is required")
	}
	if l.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", l.Quantity)
	}
	if l.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}

// Cart keeps at most one line per LineKey. The total is always derived from
// the lines.
type Cart struct {
	Owner   OwnerRef
	Lines   []CartLine
	Version string
}

func NewCart(owner OwnerRef) *Cart {
	return &Cart{Owner: owner}
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	if c == nil {
		return n
	}
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Find(key LineKey) (CartLine, bool) {
	if i := c.index(key); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

func (c *Cart) index(key LineKey) int {
	for i, l := range c.Lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

// Add sums quantities into an existing line with the same key, or appends.
func (c *Cart) Add(line CartLine) {
	if i := c.index(line.Key()); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity is a no-op when quantity < 1 or the line is missing.
func (c *Cart) SetQuantity(key LineKey, quantity int) bool {
	if quantity < 1 {
		return false
	}
	i := c.index(key)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity = quantity
	return true
}

func (c *Cart) Remove(key LineKey) bool {
	i := c.index(key)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// Merge folds every line of other into c: equal keys are summed, the rest
// copied. other is left untouched.
func (c *Cart) Merge(other *Cart) {
	if other == nil {
		return
	}
	for _, l := range other.Lines {
		c.Add(l)
	}
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Lines = append([]CartLine(nil), c.Lines...)
	return &out
}

// Snapshot freezes the lines into checkout items.
func (c *Cart) Snapshot() []CheckoutItem {
	items := make([]CheckoutItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, CheckoutItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
		})
	}
	return items
}
