// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package service holds the long-running plumbing shared by storefront
// binaries: the Matrix /sync long-poll loop and a CBOR request-response
// server on a Unix socket for local diagnostics.
package service
