// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"

	"github.com/tillworks/till/lib/ref"
)

// Session is the interface for the Matrix operations the storefront
// performs. *DirectSession is the production implementation; tests
// substitute fakes so cart provisioning and command handling can be
// exercised without a homeserver.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID of the
	// session's account.
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// ResolveAlias resolves a room alias to a room ID.
	ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error)

	// CreateRoom creates a new Matrix room.
	CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error)

	// JoinRoom joins a room by room ID. Returns the room ID. To join
	// by alias, resolve with ResolveAlias first.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// JoinedRooms returns the list of room IDs the user has joined.
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)

	// InviteUser invites a user to a room.
	InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error

	// KickUser removes a user from a room with an optional reason.
	KickUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error

	// LeaveRoom leaves a room by ID.
	LeaveRoom(ctx context.Context, roomID ref.RoomID) error

	// SendMessage sends a message to a room. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// SendEvent sends an event of any type to a room. Returns the
	// event ID.
	SendEvent(ctx context.Context, roomID ref.RoomID, eventType string, content any) (ref.EventID, error)

	// SendStateEvent sends a state event to a room. Returns the
	// event ID.
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType, stateKey string, content any) (ref.EventID, error)

	// GetStateEvent fetches a specific state event's content from a
	// room. Returns the raw JSON content for the caller to unmarshal.
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType, stateKey string) (json.RawMessage, error)

	// GetRoomMembers returns the members of a room.
	GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]RoomMember, error)

	// GetDisplayName fetches a user's display name.
	GetDisplayName(ctx context.Context, userID ref.UserID) (string, error)

	// Sync performs an incremental sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
