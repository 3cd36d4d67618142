// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tillworks/till/lib/cart"
	"github.com/tillworks/till/lib/ref"
	"github.com/tillworks/till/lib/service"
	"github.com/tillworks/till/messaging"
)

// syncFilter restricts the /sync response to the event types the
// storefront consumes: chat messages (command dispatch), cart records
// (index rebuild), and membership (invite acceptance).
var syncFilter = buildSyncFilter()

func buildSyncFilter() string {
	stateEventTypes := []string{
		cart.EventTypeCart,
		"m.room.member",
	}
	timelineEventTypes := []string{
		"m.room.message",
		cart.EventTypeCart,
	}
	emptyTypes := []string{}

	filter := map[string]any{
		"room": map[string]any{
			"state": map[string]any{
				"types": stateEventTypes,
			},
			"timeline": map[string]any{
				"types": timelineEventTypes,
				"limit": 100,
			},
			"ephemeral": map[string]any{
				"types": emptyTypes,
			},
			"account_data": map[string]any{
				"types": emptyTypes,
			},
		},
		"presence": map[string]any{
			"types": emptyTypes,
		},
		"account_data": map[string]any{
			"types": emptyTypes,
		},
	}

	data, err := json.Marshal(filter)
	if err != nil {
		panic("building sync filter: " + err.Error())
	}
	return string(data)
}

// initialSync performs the first /sync, accepts pending invites, and
// rebuilds the cart index from the com.till.cart state event of every
// joined room. Enumerating joined rooms directly (rather than the sync
// response's join section) also covers rooms joined during invite
// acceptance, which only appear in the next /sync batch. Returns the
// since token for the incremental loop.
func (sf *Storefront) initialSync(ctx context.Context) (string, error) {
	sinceToken, response, err := service.InitialSync(ctx, sf.session, syncFilter)
	if err != nil {
		return "", err
	}

	service.AcceptInvites(ctx, sf.session, response.Rooms.Invite, sf.logger)

	joined, err := sf.session.JoinedRooms(ctx)
	if err != nil {
		return "", fmt.Errorf("listing joined rooms: %w", err)
	}

	for _, roomID := range joined {
		raw, err := sf.session.GetStateEvent(ctx, roomID, cart.EventTypeCart, "")
		if err != nil {
			if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
				continue // not a cart room
			}
			sf.logger.Error("fetching cart record", "room_id", roomID, "error", err)
			continue
		}
		var content cart.CartContent
		if err := json.Unmarshal(raw, &content); err != nil {
			sf.logger.Error("parsing cart record", "room_id", roomID, "error", err)
			continue
		}
		sf.carts.Restore(roomID, content)
	}

	sf.logger.Info("initial sync complete",
		"joined_rooms", len(joined),
		"pending_invites", len(response.Rooms.Invite),
	)
	return sinceToken, nil
}

// handleSync processes one incremental /sync response: accept invites,
// refresh restored cart records, and dispatch !loja commands.
func (sf *Storefront) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	service.AcceptInvites(ctx, sf.session, response.Rooms.Invite, sf.logger)

	for roomID, room := range response.Rooms.Join {
		sf.restoreCarts(roomID, room.State.Events)
		sf.restoreCarts(roomID, room.Timeline.Events)

		for _, event := range room.Timeline.Events {
			if event.Type != "m.room.message" {
				continue
			}
			if event.Sender == sf.session.UserID() {
				continue // never react to our own messages
			}
			body, _ := event.Content["body"].(string)
			sf.dispatchCommand(ctx, roomID, event.Sender, body)
		}
	}
}

// restoreCarts feeds com.till.cart state events into the cart index.
// State events can arrive in either the state or timeline section.
func (sf *Storefront) restoreCarts(roomID ref.RoomID, events []messaging.Event) {
	for _, event := range events {
		if event.Type != cart.EventTypeCart || event.StateKey == nil {
			continue
		}
		// Our own echoes carry the same content the service already
		// holds; restoring them is harmless and keeps restarts and
		// live updates on one code path.
		data, err := json.Marshal(event.Content)
		if err != nil {
			continue
		}
		var content cart.CartContent
		if err := json.Unmarshal(data, &content); err != nil {
			sf.logger.Error("parsing cart record", "room_id", roomID, "error", err)
			continue
		}
		sf.carts.Restore(roomID, content)
	}
}
