// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() and advance time deterministically.
//
// Production functions that would call time.Now, time.After, or
// time.Sleep accept a Clock parameter (or are methods on a struct with
// a Clock field) instead of calling the time package directly.
package clock
