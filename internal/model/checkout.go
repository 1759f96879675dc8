package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrIllegalTransition = errors.New("illegal checkout state transition")

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type CheckoutState string

const (
	CheckoutDraft     CheckoutState = "draft"
	CheckoutCreated   CheckoutState = "created"
	CheckoutPaid      CheckoutState = "paid"
	CheckoutFinalized CheckoutState = "finalized"
	CheckoutAbandoned CheckoutState = "abandoned"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutFinalized || s == CheckoutAbandoned
}

func (s CheckoutState) String() string {
	return string(s)
}

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutDraft:   {CheckoutCreated, CheckoutAbandoned},
	CheckoutCreated: {CheckoutPaid, CheckoutAbandoned},
	CheckoutPaid:    {CheckoutFinalized},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	FirstName  string `validate:"required"`
	LastName   string `validate:"required"`
	Address    string `validate:"required"`
	City       string `validate:"required"`
	PostalCode string `validate:"required"`
	Country    string `validate:"required"`
	Phone      string `validate:"required"`
}

type CheckoutItem struct {
	ProductID string
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int
	Size      string
	Color     string
}

type PaymentDetails struct {
	ProviderOrderID string
	Status          string
	PayerEmail      string
	Amount          decimal.Decimal
	CapturedAt      time.Time
	Raw             map[string]any
}

type Checkout struct {
	ID              string
	Items           []CheckoutItem
	ShippingAddress ShippingAddress
	PaymentMethod   string
	TotalPrice      decimal.Decimal
	PaymentStatus   PaymentStatus
	PaymentDetails  *PaymentDetails
	IsFinalized     bool
	State           CheckoutState
	CreatedAt       time.Time
}

// Transition moves the checkout along the state machine, keeping
// PaymentStatus and IsFinalized in step with State.
func (c *Checkout) Transition(to CheckoutState) error {
	if !CanTransitionTo(c.State, to) {
		return ErrIllegalTransition
	}
	c.State = to
	switch to {
	case CheckoutPaid:
		c.PaymentStatus = PaymentPaid
	case CheckoutFinalized:
		c.IsFinalized = true
	}
	return nil
}

func (c *Checkout) IsPaid() bool {
	return c != nil && c.PaymentStatus == PaymentPaid
}
