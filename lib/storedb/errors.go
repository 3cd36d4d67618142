// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package storedb

import "errors"

// ErrDuplicateName is returned by CreateProduct when a product with
// the same name already exists. The catalog is never overwritten by a
// colliding create.
var ErrDuplicateName = errors.New("storedb: product name already exists")

// ErrNotFound is returned by Product and DeleteProduct when no product
// has the given name.
var ErrNotFound = errors.New("storedb: product not found")
