// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for the Matrix identifiers Till works with: user IDs, room IDs, room
// aliases, and event IDs.
//
// All constructors validate their inputs and return errors for invalid
// identifiers. Once constructed, a ref is immutable — the zero value of
// every type is "unset", checked with IsZero. Identifiers arrive from
// the homeserver (room creation, alias resolution, /sync) and from
// operator configuration, and are parsed into these types at the
// boundary; the rest of the codebase never handles raw identifier
// strings.
//
// JSON marshaling uses the canonical Matrix form (@user:server,
// !room:server, #alias:server, $event) via encoding.TextMarshaler.
package ref
