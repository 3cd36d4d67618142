// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package cart implements the purchase flow of the storefront: private
// cart rooms provisioned per customer, the OPEN → APPROVED → CLOSED
// lifecycle, and delivery of purchased content over direct messages.
//
// A cart's durable record is a com.till.cart state event in the cart
// room itself — the room is the source of truth. The in-memory index is
// rebuilt from the initial /sync at startup, so carts survive service
// restarts.
package cart
