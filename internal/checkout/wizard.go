package checkout

import (
	"fmt"
	"strings"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// Stage is one state of the linear checkout wizard.
type Stage string

const (
	StageCustomer Stage = "customer_info"
	StagePayment  Stage = "payment_method"
	StageShipping Stage = "shipping"
	StageReview   Stage = "review"
)

// ShippingMethod is the closed set of delivery options.
type ShippingMethod string

const (
	ShippingDelivery ShippingMethod = "delivery"
	ShippingPickup   ShippingMethod = "pickup"
)

// ValidationError rejects a forward transition. The current stage is left
// unchanged; the message is user-facing.
type ValidationError struct {
	Stage   Stage
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: %s: %s", e.Stage, e.Message)
}

// Wizard is the four-stage checkout state machine:
//
//	customer_info → payment_method → shipping → review
//
// Forward transitions are gated per stage, backward transitions are
// unconditional. The struct is JSON-serialisable so it can live in the
// wizard store between requests.
type Wizard struct {
	Stage          Stage                `json:"stage"`
	Customer       entity.CustomerInfo  `json:"customer"`
	PaymentMethod  entity.PaymentMethod `json:"payment_method,omitempty"`
	ShippingMethod ShippingMethod       `json:"shipping_method,omitempty"`
	Address        string               `json:"address,omitempty"`
}

func NewWizard() *Wizard {
	return &Wizard{Stage: StageCustomer}
}

// Advance validates the current stage and moves to the next one. On a
// *ValidationError the stage does not change. Advancing from review is
// rejected; review terminates through Confirm.
func (w *Wizard) Advance() error {
	switch w.Stage {
	case StageCustomer:
		if !w.Customer.Complete() {
			return &ValidationError{Stage: w.Stage, Message: "username and a 13-character DPI are required unless buying as final consumer"}
		}
		w.Stage = StagePayment
	case StagePayment:
		if !w.PaymentMethod.Valid() {
			return &ValidationError{Stage: w.Stage, Message: "select a payment method"}
		}
		w.Stage = StageShipping
	case StageShipping:
		switch w.ShippingMethod {
		case ShippingPickup:
		case ShippingDelivery:
			if strings.TrimSpace(w.Address) == "" {
				return &ValidationError{Stage: w.Stage, Message: "home delivery requires an address"}
			}
		default:
			return &ValidationError{Stage: w.Stage, Message: "select a shipping method"}
		}
		w.Stage = StageReview
	case StageReview:
		return &ValidationError{Stage: w.Stage, Message: "already at review"}
	default:
		return &ValidationError{Stage: w.Stage, Message: "unknown stage"}
	}
	return nil
}

// Back moves one stage backward, unconditionally. At the first stage it is a
// no-op.
func (w *Wizard) Back() {
	switch w.Stage {
	case StagePayment:
		w.Stage = StageCustomer
	case StageShipping:
		w.Stage = StagePayment
	case StageReview:
		w.Stage = StageShipping
	}
}

// CanConfirm reports whether the terminal action is reachable.
func (w *Wizard) CanConfirm() bool {
	return w.Stage == StageReview
}
