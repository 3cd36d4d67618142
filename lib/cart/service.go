// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tillworks/till/lib/authorization"
	"github.com/tillworks/till/lib/clock"
	"github.com/tillworks/till/lib/ref"
	"github.com/tillworks/till/lib/storedb"
	"github.com/tillworks/till/messaging"
)

// Service provisions cart rooms and drives their lifecycle. It owns
// the in-memory cart index; the durable record of each cart lives in
// the cart room's com.till.cart state event.
type Service struct {
	session messaging.Session
	store   *storedb.Store
	logger  *slog.Logger
	clk     clock.Clock

	mu      sync.Mutex
	carts   map[ref.RoomID]*Cart
	dmRooms map[ref.UserID]ref.RoomID
}

// NewService creates a cart service. logger nil means slog.Default();
// clk nil means the real clock.
func NewService(session messaging.Session, store *storedb.Store, logger *slog.Logger, clk clock.Clock) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{
		session: session,
		store:   store,
		logger:  logger,
		clk:     clk,
		carts:   make(map[ref.RoomID]*Cart),
		dmRooms: make(map[ref.UserID]ref.RoomID),
	}
}

// Get returns the cart for roomID, if the room is a known cart.
func (s *Service) Get(roomID ref.RoomID) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[roomID]
	return cart, ok
}

// Counts returns the number of open and approved carts. Closed carts
// leave the index when the room is tombstoned.
func (s *Service) Counts() (open, approved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cart := range s.carts {
		switch cart.Status() {
		case StatusOpen:
			open++
		case StatusApproved:
			approved++
		}
	}
	return open, approved
}

// Restore registers a cart rebuilt from a com.till.cart state event
// seen during sync. Closed carts are dropped from the index.
func (s *Service) Restore(roomID ref.RoomID, content CartContent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if content.Status == StatusClosed {
		delete(s.carts, roomID)
		return
	}
	s.carts[roomID] = &Cart{
		RoomID:   roomID,
		Customer: content.Customer,
		Subject:  content.Subject,
		Price:    content.Price,
		OpenedAt: content.OpenedAt,
		status:   content.Status,
	}
}

// Open provisions a new cart room for the customer: an invite-only
// room named after the customer, joinable by admin role holders,
// parented under the category space, with the cart record and one
// instructional message posted into it.
//
// Fails with ErrConfigIncomplete before touching the homeserver when
// the storefront is not fully configured.
func (s *Service) Open(ctx context.Context, customer ref.UserID, subject, price string) (*Cart, error) {
	config := s.store.Config()
	if !config.IsComplete() {
		return nil, ErrConfigIncomplete
	}

	via := []string{s.session.UserID().Server()}
	roomName := "carrinho-" + sanitizeLocalpart(customer.Localpart())

	response, err := s.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Name:       roomName,
		Topic:      subject,
		Visibility: "private",
		InitialState: []messaging.StateEvent{
			{
				// Invited users plus admin role holders; nobody else
				// can see or join the cart.
				Type: eventTypeJoinRules,
				Content: joinRulesContent{
					JoinRule: "restricted",
					Allow: []joinRuleAllow{
						{Type: "m.room_membership", RoomID: config.AdminRole},
					},
				},
			},
			{
				Type:    eventTypeHistoryVisibility,
				Content: map[string]string{"history_visibility": "invited"},
			},
			{
				Type:     eventTypeSpaceParent,
				StateKey: config.Category.String(),
				Content:  spaceParentContent{Via: via, Canonical: true},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cart: creating cart room for %s: %w", customer, err)
	}
	roomID := response.RoomID

	// Everything after room creation is cleaned up on failure by
	// leaving the room.
	fail := func(step string, err error) (*Cart, error) {
		if leaveErr := s.session.LeaveRoom(ctx, roomID); leaveErr != nil {
			s.logger.Error("abandoning failed cart room", "room_id", roomID, "error", leaveErr)
		}
		return nil, fmt.Errorf("cart: %s for %s: %w", step, customer, err)
	}

	// Parent the cart under the category space so clients group it
	// with the rest of the storefront.
	if _, err := s.session.SendStateEvent(ctx, config.Category, eventTypeSpaceChild, roomID.String(), spaceChildContent{Via: via}); err != nil {
		return fail("parenting cart room", err)
	}

	content := CartContent{
		Customer: customer,
		Subject:  subject,
		Price:    price,
		Status:   StatusOpen,
		OpenedAt: s.clk.Now().UnixMilli(),
	}
	if _, err := s.session.SendStateEvent(ctx, roomID, EventTypeCart, "", content); err != nil {
		return fail("recording cart state", err)
	}

	// The invite goes out last so the customer never sees a
	// half-provisioned cart.
	if err := s.session.InviteUser(ctx, roomID, customer); err != nil {
		return fail("inviting customer", err)
	}

	instructions := fmt.Sprintf(
		"%s, seu carrinho foi aberto.\n\nItem: %s\nValor: %s\n\nPagamento via PIX: %s\n\nEnvie o comprovante aqui e aguarde a aprovação.",
		s.displayName(ctx, customer), subject, price, config.Pix,
	)
	if _, err := s.session.SendMessage(ctx, roomID, messaging.NewNoticeMention(instructions, customer)); err != nil {
		return fail("posting cart instructions", err)
	}

	cart := &Cart{
		RoomID:   roomID,
		Customer: customer,
		Subject:  subject,
		Price:    price,
		OpenedAt: content.OpenedAt,
		status:   StatusOpen,
	}
	s.mu.Lock()
	s.carts[roomID] = cart
	s.mu.Unlock()

	s.logger.Info("cart opened",
		"room_id", roomID,
		"customer", customer,
		"subject", subject,
	)
	return cart, nil
}

// Approve confirms payment on an open cart. Admin-gated. On success
// the cart is APPROVED, the state event is updated, and a confirmation
// naming the customer is posted into the cart room.
func (s *Service) Approve(ctx context.Context, actor authorization.Actor, roomID ref.RoomID) error {
	cart, err := s.adminCart(actor, roomID)
	if err != nil {
		return err
	}

	cart.mu.Lock()
	defer cart.mu.Unlock()

	to, ok := next(cart.status, actionApprove)
	if !ok {
		return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, cart.status)
	}

	content := CartContent{
		Customer: cart.Customer,
		Subject:  cart.Subject,
		Price:    cart.Price,
		Status:   to,
		OpenedAt: cart.OpenedAt,
	}
	if _, err := s.session.SendStateEvent(ctx, roomID, EventTypeCart, "", content); err != nil {
		return fmt.Errorf("cart: recording approval: %w", err)
	}
	cart.status = to

	confirmation := fmt.Sprintf("Pagamento aprovado para %s. Obrigado pela compra de %s!",
		cart.Customer, cart.Subject)
	if _, err := s.session.SendMessage(ctx, roomID, messaging.NewNoticeMention(confirmation, cart.Customer)); err != nil {
		// The approval itself is durable; the missing confirmation
		// message is only cosmetic.
		s.logger.Error("posting approval confirmation", "room_id", roomID, "error", err)
	}

	s.logger.Info("cart approved", "room_id", roomID, "customer", cart.Customer, "actor", actor.UserID)
	return nil
}

// Close terminates a cart: every member but the service is kicked,
// the room is tombstoned, the CLOSED record is written, and the
// service leaves. Legal from both OPEN and APPROVED. If any room
// operation fails the cart keeps its prior status, durably and in
// memory, and the admin can retry; the CLOSED record is written only
// after the teardown it describes has succeeded.
func (s *Service) Close(ctx context.Context, actor authorization.Actor, roomID ref.RoomID) error {
	cart, err := s.adminCart(actor, roomID)
	if err != nil {
		return err
	}

	cart.mu.Lock()
	defer cart.mu.Unlock()

	to, ok := next(cart.status, actionClose)
	if !ok {
		return fmt.Errorf("%w: close from %s", ErrInvalidTransition, cart.status)
	}

	members, err := s.session.GetRoomMembers(ctx, roomID)
	if err != nil {
		return fmt.Errorf("cart: listing cart room members: %w", err)
	}
	for _, member := range members {
		if member.Membership != "join" || member.UserID == s.session.UserID() {
			continue
		}
		if err := s.session.KickUser(ctx, roomID, member.UserID, "carrinho fechado"); err != nil {
			return fmt.Errorf("cart: removing %s: %w", member.UserID, err)
		}
	}

	if _, err := s.session.SendStateEvent(ctx, roomID, eventTypeTombstone, "", messaging.TombstoneContent{
		Body: "Carrinho fechado.",
	}); err != nil {
		return fmt.Errorf("cart: tombstoning cart room: %w", err)
	}

	content := CartContent{
		Customer: cart.Customer,
		Subject:  cart.Subject,
		Price:    cart.Price,
		Status:   to,
		OpenedAt: cart.OpenedAt,
	}
	if _, err := s.session.SendStateEvent(ctx, roomID, EventTypeCart, "", content); err != nil {
		return fmt.Errorf("cart: recording close: %w", err)
	}

	if err := s.session.LeaveRoom(ctx, roomID); err != nil {
		return fmt.Errorf("cart: leaving cart room: %w", err)
	}

	cart.status = to
	s.mu.Lock()
	delete(s.carts, roomID)
	s.mu.Unlock()

	s.logger.Info("cart closed", "room_id", roomID, "customer", cart.Customer, "actor", actor.UserID)
	return nil
}

// Deliver sends purchased content to the cart's customer over a direct
// room, created lazily on first delivery to that customer. Failure is
// a recoverable *DeliveryError: the cart keeps its status and the
// admin retries.
func (s *Service) Deliver(ctx context.Context, actor authorization.Actor, roomID ref.RoomID, text string) error {
	cart, err := s.adminCart(actor, roomID)
	if err != nil {
		return err
	}

	dmRoom, err := s.directRoom(ctx, cart.Customer)
	if err != nil {
		return &DeliveryError{Customer: cart.Customer, Err: err}
	}

	// The deliverable is content for the customer, not bot status, so
	// it goes out as a plain m.text message.
	body := fmt.Sprintf("Entrega do seu pedido (%s):\n\n%s", cart.Subject, text)
	if _, err := s.session.SendMessage(ctx, dmRoom, messaging.NewTextMessage(body)); err != nil {
		return &DeliveryError{Customer: cart.Customer, Err: err}
	}

	s.logger.Info("cart content delivered", "room_id", roomID, "customer", cart.Customer)
	return nil
}

// adminCart resolves the cart for roomID and gates the caller against
// the configured admin role.
func (s *Service) adminCart(actor authorization.Actor, roomID ref.RoomID) (*Cart, error) {
	cart, ok := s.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCart, roomID)
	}
	if !authorization.Allowed(actor, s.store.Config().AdminRole) {
		return nil, fmt.Errorf("%w: %s", ErrPermission, actor.UserID)
	}
	return cart, nil
}

// displayName resolves the customer's display name for room messages,
// falling back to the full user ID when the profile has none.
func (s *Service) displayName(ctx context.Context, userID ref.UserID) string {
	name, err := s.session.GetDisplayName(ctx, userID)
	if err != nil || name == "" {
		return userID.String()
	}
	return name
}

// directRoom returns a direct room shared with the customer, creating
// one on first use.
func (s *Service) directRoom(ctx context.Context, customer ref.UserID) (ref.RoomID, error) {
	s.mu.Lock()
	roomID, ok := s.dmRooms[customer]
	s.mu.Unlock()
	if ok {
		return roomID, nil
	}

	response, err := s.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Preset:   "trusted_private_chat",
		IsDirect: true,
		Invite:   []ref.UserID{customer},
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("creating direct room: %w", err)
	}

	s.mu.Lock()
	s.dmRooms[customer] = response.RoomID
	s.mu.Unlock()
	return response.RoomID, nil
}

// sanitizeLocalpart reduces a Matrix localpart to a short, readable
// room name fragment.
func sanitizeLocalpart(localpart string) string {
	var builder strings.Builder
	lastDash := true // suppress leading dashes
	for _, r := range strings.ToLower(localpart) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
		if builder.Len() >= 40 {
			break
		}
	}
	name := strings.Trim(builder.String(), "-")
	if name == "" {
		return "cliente"
	}
	return name
}
