// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the Matrix client layer of the storefront
// service. A Client holds the homeserver URL and HTTP transport; a
// DirectSession wraps it with an access token for authenticated calls.
//
// The service authenticates exclusively with a pre-provisioned access
// token (see Client.SessionFromToken) — there is no login or
// registration path. Tokens live in mmap-backed secret buffers so they
// never reach swap or core dumps.
package messaging
