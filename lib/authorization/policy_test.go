// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package authorization

import (
	"testing"

	"github.com/tillworks/till/lib/ref"
)

func TestAllowed(t *testing.T) {
	roleA := ref.MustParseRoomID("!role-a:till.local")
	roleB := ref.MustParseRoomID("!role-b:till.local")

	tests := []struct {
		name        string
		serverAdmin bool
		holdsRole   bool
		adminRole   ref.RoomID
		want        bool
	}{
		// No role configured: only server admins pass.
		{"no role, plain member", false, false, ref.RoomID{}, false},
		{"no role, server admin", true, false, ref.RoomID{}, true},

		// Role configured: all four combinations.
		{"role set, neither", false, false, roleA, false},
		{"role set, holder only", false, true, roleA, true},
		{"role set, server admin only", true, false, roleA, true},
		{"role set, both", true, true, roleA, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actor := Actor{
				UserID:      ref.MustParseUserID("@user:till.local"),
				RoleRooms:   map[ref.RoomID]bool{},
				ServerAdmin: test.serverAdmin,
			}
			if test.holdsRole {
				actor.RoleRooms[test.adminRole] = true
			}
			if got := Allowed(actor, test.adminRole); got != test.want {
				t.Errorf("Allowed = %v, want %v", got, test.want)
			}
		})
	}

	t.Run("holding a different role does not authorize", func(t *testing.T) {
		actor := Actor{RoleRooms: map[ref.RoomID]bool{roleB: true}}
		if Allowed(actor, roleA) {
			t.Error("member of role B authorized against role A")
		}
	})
}
