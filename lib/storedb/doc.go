// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package storedb is the durable state of one storefront tenant: the
// three tenant-wide settings (PIX payment reference, admin role room,
// category space) and the product catalog.
//
// A Store owns a single JSON document on disk and is the only writer.
// Every mutation is flushed before the mutating call returns, via
// write-to-temp-and-rename so a crash never leaves a torn document.
// Absence of the file is not an error — it is the documented default
// state (nothing configured, empty catalog).
//
// The on-disk document keeps the legacy storefront format (top-level
// "config" and "produtos" keys with Portuguese field names) so that a
// database written by earlier storefront bots loads unchanged.
package storedb
