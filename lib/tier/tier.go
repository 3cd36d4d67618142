// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package tier

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/tidwall/jsonc"
)

//go:embed tiers.jsonc
var tiersJSONC []byte

// Tier is one entry of the package menu.
type Tier struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

var (
	tiers []Tier
	byID  map[string]int
)

func init() {
	if err := json.Unmarshal(jsonc.ToJSON(tiersJSONC), &tiers); err != nil {
		panic(fmt.Sprintf("tier: embedded menu is invalid: %v", err))
	}
	byID = make(map[string]int, len(tiers))
	for index, entry := range tiers {
		if entry.ID == "" || entry.Label == "" || entry.Price == "" {
			panic(fmt.Sprintf("tier: embedded menu entry %d is incomplete", index))
		}
		if _, dup := byID[entry.ID]; dup {
			panic(fmt.Sprintf("tier: duplicate menu id %q", entry.ID))
		}
		byID[entry.ID] = index
	}
}

// All returns the menu in display order.
func All() iter.Seq[Tier] {
	return func(yield func(Tier) bool) {
		for _, entry := range tiers {
			if !yield(entry) {
				return
			}
		}
	}
}

// Len returns the number of menu entries.
func Len() int { return len(tiers) }

// ByID looks a tier up by its identifier.
func ByID(id string) (Tier, bool) {
	index, ok := byID[id]
	if !ok {
		return Tier{}, false
	}
	return tiers[index], true
}
