// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package storedb

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tillworks/till/lib/ref"
)

// pixUnconfigured is the legacy sentinel meaning "no PIX reference
// configured". It exists only at the serialization boundary: in memory
// an unconfigured PIX is the empty string, checked by Config.IsComplete.
const pixUnconfigured = "Não configurado"

// configDoc is the wire shape of the "config" key. Field names match
// the legacy storefront database format.
type configDoc struct {
	Pix       string  `json:"pix"`
	AdminRole *string `json:"cargo_admin"`
	Category  *string `json:"categoria"`
}

// productDoc is the wire shape of one "produtos" entry.
type productDoc struct {
	Price       string  `json:"preco"`
	Description string  `json:"descricao"`
	Image       *string `json:"imagem"`
}

// loadDocument parses the on-disk document into the store. The
// "produtos" object is decoded with a token stream so that the catalog
// keeps the file's key order — listing order is part of the contract
// and encoding/json's map decoding would lose it.
func (s *Store) loadDocument(data []byte) error {
	var envelope struct {
		Config   configDoc       `json:"config"`
		Products json.RawMessage `json:"produtos"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	config := Config{}
	if envelope.Config.Pix != "" && envelope.Config.Pix != pixUnconfigured {
		config.Pix = envelope.Config.Pix
	}
	if envelope.Config.AdminRole != nil {
		roomID, err := ref.ParseRoomID(*envelope.Config.AdminRole)
		if err != nil {
			return fmt.Errorf("config.cargo_admin: %w", err)
		}
		config.AdminRole = roomID
	}
	if envelope.Config.Category != nil {
		roomID, err := ref.ParseRoomID(*envelope.Config.Category)
		if err != nil {
			return fmt.Errorf("config.categoria: %w", err)
		}
		config.Category = roomID
	}
	s.config = config

	if len(envelope.Products) == 0 {
		return nil
	}
	return s.loadProducts(envelope.Products)
}

// loadProducts decodes the "produtos" object preserving key order.
func (s *Store) loadProducts(raw json.RawMessage) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))

	opening, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("produtos: %w", err)
	}
	if opening != json.Delim('{') {
		return fmt.Errorf("produtos: expected object, got %v", opening)
	}

	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("produtos: %w", err)
		}
		name, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("produtos: non-string key %v", keyToken)
		}

		var doc productDoc
		if err := decoder.Decode(&doc); err != nil {
			return fmt.Errorf("produtos[%q]: %w", name, err)
		}

		if _, exists := s.byName[name]; exists {
			return fmt.Errorf("produtos: duplicate key %q", name)
		}
		product := Product{
			Name:        name,
			Price:       doc.Price,
			Description: doc.Description,
		}
		if doc.Image != nil {
			product.ImageURL = *doc.Image
		}
		s.products = append(s.products, product)
		s.byName[name] = len(s.products) - 1
	}

	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("produtos: %w", err)
	}
	return nil
}

// encodeDocument renders the store as the legacy JSON document. The
// "produtos" object is written by hand so its keys appear in catalog
// insertion order. Callers must hold s.mu.
func (s *Store) encodeDocument() ([]byte, error) {
	config := configDoc{Pix: s.config.Pix}
	if config.Pix == "" {
		config.Pix = pixUnconfigured
	}
	if !s.config.AdminRole.IsZero() {
		value := s.config.AdminRole.String()
		config.AdminRole = &value
	}
	if !s.config.Category.IsZero() {
		value := s.config.Category.String()
		config.Category = &value
	}

	var buffer bytes.Buffer
	buffer.WriteString("{\n  \"config\": ")
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	buffer.Write(configJSON)

	buffer.WriteString(",\n  \"produtos\": {")
	for index, product := range s.products {
		if index > 0 {
			buffer.WriteByte(',')
		}
		buffer.WriteString("\n    ")

		nameJSON, err := json.Marshal(product.Name)
		if err != nil {
			return nil, err
		}
		buffer.Write(nameJSON)
		buffer.WriteString(": ")

		doc := productDoc{
			Price:       product.Price,
			Description: product.Description,
		}
		if product.ImageURL != "" {
			image := product.ImageURL
			doc.Image = &image
		}
		docJSON, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		buffer.Write(docJSON)
	}
	if len(s.products) > 0 {
		buffer.WriteString("\n  ")
	}
	buffer.WriteString("}\n}\n")

	return buffer.Bytes(), nil
}
