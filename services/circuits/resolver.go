// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package circuits

import (
	"log/slog"
	"strings"
)

// minTokenLength is the cutoff below which canonical-name tokens are not
// considered for tier-3 matching. Short tokens ("abu", "usa") produce too
// many false positives inside unrelated input.
const minTokenLength = 3

// Resolver maps free-text circuit names to canonical catalog identifiers.
//
// Description:
//
//	Matching is tiered, case-insensitive, and underscore/space-insensitive.
//	First match wins, and within a tier the catalog enumeration order
//	breaks ties. The tiers, highest priority first:
//
//	  1. Exact match against a canonical name.
//	  2. The input is contained within a canonical name.
//	  3. Any token of a canonical name longer than 3 characters appears
//	     as a substring of the input.
//
//	An optional alias table may be layered on top; it is consulted before
//	the tiers and does not change the tiering contract. The default
//	resolver ships without aliases, so nicknames with no lexical overlap
//	("cota") deliberately do not resolve.
//
// Thread Safety: Resolver is immutable after construction and safe for
// concurrent use.
type Resolver struct {
	catalog *Catalog
	aliases map[string]string
}

// NewResolver creates a resolver over the given catalog with no aliases.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog, aliases: map[string]string{}}
}

// NewResolverWithAliases creates a resolver with an alias enrichment table.
//
// Description:
//
//	Alias keys are normalized (lowercased, underscores as spaces) before
//	storage. Values must be canonical catalog identifiers; entries whose
//	value is not in the catalog are dropped with a warning rather than
//	silently resolving to nonexistent circuits.
//
// Inputs:
//   - catalog: The canonical catalog.
//   - aliases: Mapping of nickname to canonical identifier.
//
// Outputs:
//   - *Resolver: The configured resolver.
func NewResolverWithAliases(catalog *Catalog, aliases map[string]string) *Resolver {
	r := &Resolver{catalog: catalog, aliases: make(map[string]string, len(aliases))}
	canonical := make(map[string]bool, catalog.Len())
	for _, name := range catalog.names {
		canonical[name] = true
	}
	for k, v := range aliases {
		if !canonical[v] {
			slog.Warn("Dropping alias with non-canonical target",
				slog.String("alias", k),
				slog.String("target", v),
			)
			continue
		}
		r.aliases[normalize(k)] = v
	}
	return r
}

// Resolve maps free text to a canonical circuit identifier.
//
// Inputs:
//   - input: Arbitrary free text loosely naming a circuit or host
//     country/city. Case and separator insensitive.
//
// Outputs:
//   - string: The canonical identifier, or "" when not found.
//   - bool: True when a canonical identifier was found.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Resolver) Resolve(input string) (string, bool) {
	n := normalize(input)
	if n == "" {
		return "", false
	}

	if canonical, ok := r.aliases[n]; ok {
		return canonical, true
	}

	// Tier 1: exact match.
	for _, name := range r.catalog.names {
		if normalize(name) == n {
			return name, true
		}
	}

	// Tier 2: input contained within a canonical name.
	for _, name := range r.catalog.names {
		if strings.Contains(normalize(name), n) {
			return name, true
		}
	}

	// Tier 3: a long-enough canonical token appears inside the input.
	for _, name := range r.catalog.names {
		for _, token := range strings.Fields(normalize(name)) {
			if len(token) > minTokenLength && strings.Contains(n, token) {
				return name, true
			}
		}
	}

	return "", false
}
