// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package cart

import (
	"errors"
	"fmt"

	"github.com/tillworks/till/lib/ref"
)

// ErrConfigIncomplete is returned by Open when the storefront has not
// been fully configured (PIX reference, admin role, and category space
// are all required before any cart can be provisioned).
var ErrConfigIncomplete = errors.New("cart: storefront configuration incomplete")

// ErrPermission is returned by admin operations when the acting user
// is neither a server admin nor a holder of the configured admin role.
var ErrPermission = errors.New("cart: permission denied")

// ErrInvalidTransition is returned when an operation is not legal from
// the cart's current status (approving a closed cart, closing twice).
var ErrInvalidTransition = errors.New("cart: invalid lifecycle transition")

// ErrUnknownCart is returned when the room is not a cart the service
// knows about.
var ErrUnknownCart = errors.New("cart: room is not a known cart")

// DeliveryError reports a failed content delivery. Delivery failures
// are recoverable: the cart keeps its status and the admin can retry.
type DeliveryError struct {
	Customer ref.UserID
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("cart: delivering to %s: %v", e.Customer, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
