// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package storedb

import (
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tillworks/till/lib/ref"
)

// Config holds the three tenant-wide storefront settings. The zero
// value is "nothing configured".
type Config struct {
	// Pix is the payment reference string shown to customers inside
	// every cart. Opaque to the service.
	Pix string

	// AdminRole is the role room whose members may administer the
	// storefront. Zero until configured.
	AdminRole ref.RoomID

	// Category is the space room under which cart rooms are created.
	// Zero until configured.
	Category ref.RoomID
}

// IsComplete reports whether all three settings have been configured.
// Every operation that provisions a cart room must refuse until this
// is true.
func (c Config) IsComplete() bool {
	return c.Pix != "" && !c.AdminRole.IsZero() && !c.Category.IsZero()
}

// Product is one admin-defined sellable item. Name is the unique key.
type Product struct {
	Name        string
	Price       string
	Description string
	ImageURL    string // empty means no image
}

// Store is the repository for one tenant's configuration and product
// catalog. It owns the backing file exclusively: open it once at
// startup, mutate it only through Store methods, and every mutation is
// persisted before the method returns.
//
// Store is safe for concurrent use; all access is serialized by an
// internal mutex (the single-writer discipline the file format
// requires).
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger

	config Config

	// products holds the catalog in insertion order; byName indexes
	// it. Listing order is part of the contract and survives reload.
	products []Product
	byName   map[string]int
}

// Open loads the store from path, or starts from the documented
// defaults when the file does not exist. A missing file is not an
// error; any other read or parse failure is.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store := &Store{
		path:   path,
		logger: logger,
		byName: make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Info("store database absent, starting empty", "path", path)
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storedb: reading %s: %w", path, err)
	}

	if err := store.loadDocument(data); err != nil {
		return nil, fmt.Errorf("storedb: parsing %s: %w", path, err)
	}

	logger.Info("store database loaded",
		"path", path,
		"products", len(store.products),
		"configured", store.config.IsComplete(),
	)
	return store, nil
}

// Config returns the current tenant settings.
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SetConfig overwrites all three settings atomically and persists
// immediately. There are no partial updates: a subsequent Config
// observes either the previous triple or the new one.
func (s *Store) SetConfig(pix string, adminRole, category ref.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.config
	s.config = Config{Pix: pix, AdminRole: adminRole, Category: category}
	if err := s.persistLocked(); err != nil {
		s.config = previous
		return err
	}

	s.logger.Info("storefront configured",
		"admin_role", adminRole,
		"category", category,
	)
	return nil
}

// CreateProduct inserts a new product and persists. Fails with
// ErrDuplicateName if a product with the same name exists — the
// existing product is never overwritten.
func (s *Store) CreateProduct(product Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[product.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, product.Name)
	}

	s.products = append(s.products, product)
	s.byName[product.Name] = len(s.products) - 1
	if err := s.persistLocked(); err != nil {
		s.products = s.products[:len(s.products)-1]
		delete(s.byName, product.Name)
		return err
	}

	s.logger.Info("product created", "name", product.Name, "price", product.Price)
	return nil
}

// Product returns the product with the given name, or ErrNotFound.
func (s *Store) Product(name string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, exists := s.byName[name]
	if !exists {
		return Product{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.products[index], nil
}

// Products returns an iterator over the catalog in insertion order.
// The sequence is restartable and an empty catalog yields an empty
// sequence. The iteration works on a snapshot, so mutating the store
// while ranging is safe.
func (s *Store) Products() iter.Seq[Product] {
	s.mu.Lock()
	snapshot := make([]Product, len(s.products))
	copy(snapshot, s.products)
	s.mu.Unlock()

	return func(yield func(Product) bool) {
		for _, product := range snapshot {
			if !yield(product) {
				return
			}
		}
	}
}

// Len returns the number of products in the catalog.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// DeleteProduct removes the named product and persists. Fails with
// ErrNotFound if absent.
func (s *Store) DeleteProduct(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, exists := s.byName[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	removed := s.products[index]
	s.products = append(s.products[:index], s.products[index+1:]...)
	delete(s.byName, name)
	for position := index; position < len(s.products); position++ {
		s.byName[s.products[position].Name] = position
	}

	if err := s.persistLocked(); err != nil {
		// Restore the catalog so memory matches disk.
		s.products = append(s.products[:index], append([]Product{removed}, s.products[index:]...)...)
		for position := index; position < len(s.products); position++ {
			s.byName[s.products[position].Name] = position
		}
		return err
	}

	s.logger.Info("product deleted", "name", name)
	return nil
}

// persistLocked writes the document to disk via temp-file-and-rename.
// Callers must hold s.mu.
func (s *Store) persistLocked() error {
	data, err := s.encodeDocument()
	if err != nil {
		return fmt.Errorf("storedb: encoding document: %w", err)
	}

	directory := filepath.Dir(s.path)
	temp, err := os.CreateTemp(directory, ".store-*.json")
	if err != nil {
		return fmt.Errorf("storedb: creating temp file in %s: %w", directory, err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("storedb: writing %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("storedb: closing %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("storedb: replacing %s: %w", s.path, err)
	}
	return nil
}
