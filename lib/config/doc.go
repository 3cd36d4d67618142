// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Till service.
//
// Configuration is loaded from a single YAML file specified by:
//   - TILL_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The Matrix access token is deliberately NOT part of this file: it
// comes only from the TILL_ACCESS_TOKEN environment variable, read at
// startup into guarded memory (lib/secret). Storefront tenant settings
// (PIX reference, admin role, category space) are not here either —
// they are runtime state owned by lib/storedb and changed through the
// !loja configurar command.
package config
