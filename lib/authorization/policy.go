// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package authorization

import "github.com/tillworks/till/lib/ref"

// Actor is a snapshot of one user's authority at the moment a
// privileged command is evaluated. Built by the caller from homeserver
// state; the policy itself performs no I/O.
type Actor struct {
	// UserID identifies the actor. Informational — the decision uses
	// only RoleRooms and ServerAdmin.
	UserID ref.UserID

	// RoleRooms is the set of role rooms the actor is a joined
	// member of.
	RoleRooms map[ref.RoomID]bool

	// ServerAdmin reports whether the actor is an operator of the
	// storefront (power level 100 in the storefront room).
	ServerAdmin bool
}

// HoldsRole reports whether the actor is a member of the given role
// room. A zero roomID never matches.
func (a Actor) HoldsRole(roomID ref.RoomID) bool {
	if roomID.IsZero() {
		return false
	}
	return a.RoleRooms[roomID]
}

// Allowed decides whether the actor may perform a privileged storefront
// operation given the configured admin role.
//
// If no admin role is configured (zero adminRole), authorization
// reduces to server-administrator status. Otherwise the actor is
// allowed iff they are a server administrator or hold the admin role.
func Allowed(actor Actor, adminRole ref.RoomID) bool {
	if actor.ServerAdmin {
		return true
	}
	if adminRole.IsZero() {
		return false
	}
	return actor.HoldsRole(adminRole)
}
