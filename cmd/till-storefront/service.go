// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"time"

	"github.com/tillworks/till/lib/cart"
	"github.com/tillworks/till/lib/clock"
	"github.com/tillworks/till/lib/ref"
	"github.com/tillworks/till/lib/storedb"
	"github.com/tillworks/till/messaging"
)

// Storefront is the core service state: one storefront room, one
// product catalog, and the cart service driving per-customer rooms.
type Storefront struct {
	session messaging.Session
	store   *storedb.Store
	carts   *cart.Service

	storeRoom ref.RoomID
	clk       clock.Clock
	startedAt time.Time

	logger *slog.Logger
}
