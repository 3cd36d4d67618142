// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package authorization decides who may administer the storefront.
//
// The decision is a pure function over an actor snapshot and the
// configured admin role. There is exactly one rule, used verbatim by
// every privileged operation (catalog mutation, cart approval, cart
// closure, delivery): server administrators are always allowed, and
// holders of the configured admin role are allowed once a role has
// been configured. Scattering this check across command handlers is
// how double-approval and leaked-channel bugs happen, so handlers call
// Allowed and nothing else.
//
// Roles are Matrix-native: the admin role is a designated role room,
// and an actor "holds" the role by being a joined member of that room.
// Server administrator status is power level 100 in the storefront
// room (the room's operators).
package authorization
