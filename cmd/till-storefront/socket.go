// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/tillworks/till/lib/service"
	"github.com/tillworks/till/lib/tier"
)

// statusResponse is the payload of the "status" diagnostics action.
type statusResponse struct {
	UserID        string `cbor:"user_id"`
	StoreRoom     string `cbor:"store_room"`
	UptimeSeconds int64  `cbor:"uptime_seconds"`
}

// infoResponse is the payload of the "info" diagnostics action.
type infoResponse struct {
	Configured    bool `cbor:"configured"`
	Products      int  `cbor:"products"`
	Tiers         int  `cbor:"tiers"`
	OpenCarts     int  `cbor:"open_carts"`
	ApprovedCarts int  `cbor:"approved_carts"`
}

// registerActions wires the diagnostics socket actions.
func (sf *Storefront) registerActions(server *service.SocketServer) {
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return statusResponse{
			UserID:        sf.session.UserID().String(),
			StoreRoom:     sf.storeRoom.String(),
			UptimeSeconds: int64(sf.clk.Now().Sub(sf.startedAt).Seconds()),
		}, nil
	})

	server.Handle("info", func(ctx context.Context, raw []byte) (any, error) {
		open, approved := sf.carts.Counts()
		return infoResponse{
			Configured:    sf.store.Config().IsComplete(),
			Products:      sf.store.Len(),
			Tiers:         tier.Len(),
			OpenCarts:     open,
			ApprovedCarts: approved,
		}, nil
	})
}
