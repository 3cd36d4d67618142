// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package cart

import (
	"github.com/tillworks/till/lib/ref"
)

// EventTypeCart is the state event type holding a cart's durable
// record in its room. State key is always empty — one cart per room.
const EventTypeCart = "com.till.cart"

// Matrix state event types the provisioner and lifecycle touch.
const (
	eventTypeJoinRules         = "m.room.join_rules"
	eventTypeHistoryVisibility = "m.room.history_visibility"
	eventTypeSpaceChild        = "m.space.child"
	eventTypeSpaceParent       = "m.space.parent"
	eventTypeTombstone         = "m.room.tombstone"
)

// CartContent is the wire content of a com.till.cart state event.
type CartContent struct {
	Customer ref.UserID `json:"customer"`
	Subject  string     `json:"subject"`
	Price    string     `json:"price"`
	Status   Status     `json:"status"`
	OpenedAt int64      `json:"opened_at"`
}

// joinRulesContent is the content of m.room.join_rules restricting the
// cart room to invited users plus members of the admin role room.
type joinRulesContent struct {
	JoinRule string          `json:"join_rule"`
	Allow    []joinRuleAllow `json:"allow,omitempty"`
}

type joinRuleAllow struct {
	Type   string     `json:"type"`
	RoomID ref.RoomID `json:"room_id"`
}

// spaceChildContent parents a cart room under the category space.
type spaceChildContent struct {
	Via []string `json:"via"`
}

// spaceParentContent points a cart room back at the category space.
type spaceParentContent struct {
	Via       []string `json:"via"`
	Canonical bool     `json:"canonical,omitempty"`
}
