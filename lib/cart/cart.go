// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package cart

import (
	"sync"

	"github.com/tillworks/till/lib/ref"
)

// Status is the lifecycle state of a cart.
type Status string

const (
	// StatusOpen is the state of a freshly provisioned cart: the
	// customer has selected something and is expected to pay.
	StatusOpen Status = "open"

	// StatusApproved means an admin confirmed the payment.
	StatusApproved Status = "approved"

	// StatusClosed is terminal. The room has been tombstoned and the
	// cart can never re-enter any other state.
	StatusClosed Status = "closed"
)

// action is a lifecycle operation attempted against a cart.
type action string

const (
	actionApprove action = "approve"
	actionClose   action = "close"
)

// transitions is the complete lifecycle table. Anything absent is an
// invalid transition — there is no path back to open and nothing
// leaves closed.
var transitions = map[Status]map[action]Status{
	StatusOpen: {
		actionApprove: StatusApproved,
		actionClose:   StatusClosed,
	},
	StatusApproved: {
		actionClose: StatusClosed,
	},
}

// next returns the status that applying the action to from yields, or
// false when the transition is not in the table.
func next(from Status, act action) (Status, bool) {
	to, ok := transitions[from][act]
	return to, ok
}

// Cart is one customer's purchase in flight. All lifecycle mutations
// go through Service methods, which hold the cart's mutex across the
// room operations the transition requires so concurrent commands
// against the same cart serialize.
type Cart struct {
	mu sync.Mutex

	RoomID   ref.RoomID
	Customer ref.UserID
	Subject  string // product name or package tier label
	Price    string
	OpenedAt int64 // milliseconds since epoch

	status Status
}

// Status returns the cart's current lifecycle state.
func (c *Cart) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
