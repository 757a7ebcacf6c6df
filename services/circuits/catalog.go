// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package circuits resolves free-text circuit names to canonical catalog
// identifiers and locates the corresponding map image assets on disk.
package circuits

import "strings"

// defaultLocations is the fixed 2025-season circuit catalog.
//
// The order is part of the resolver contract: when two canonical entries
// match an input at the same tier, the one enumerated first wins. Keep
// the list alphabetical; do not reorder.
var defaultLocations = []string{
	"Abu_Dhabi", "Australia", "Austria", "Bahrain", "Baku", "Belgium",
	"Brazil", "Canada", "China", "Emilia_Romagna", "Great_Britain",
	"Hungary", "Italy", "Japan", "Las_Vegas", "Mexico", "Miami",
	"Monaco", "Netherlands", "Qatar", "Saudi_Arabia", "Singapore",
	"Spain", "USA",
}

// Catalog is an immutable ordered set of canonical circuit identifiers.
//
// Description:
//
//	Constructed once at startup and read-only thereafter. Enumeration
//	order is fixed and significant (deterministic ambiguity policy in
//	the resolver).
//
// Thread Safety: Catalog is immutable and safe for concurrent use.
type Catalog struct {
	names []string
}

// DefaultCatalog returns the fixed 2025-season catalog (24 circuits).
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultLocations)
}

// NewCatalog builds a catalog from the given canonical names, preserving
// their order. The input slice is copied.
func NewCatalog(names []string) *Catalog {
	c := &Catalog{names: make([]string, len(names))}
	copy(c.names, names)
	return c
}

// Names returns a copy of the canonical identifiers in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.names)
}

// normalize lowercases input, maps underscores to spaces, and collapses
// internal whitespace. Both catalog entries and user input pass through
// this before any comparison.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}
