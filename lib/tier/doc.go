// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package tier holds the fixed menu of storefront packages. The menu
// ships embedded in the binary as an annotated JSONC document, so
// operators can read the source with its comments while the service
// loads a plain JSON view of it at init.
package tier
