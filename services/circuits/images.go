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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

// imageExtensions is the fixed probe order for circuit map assets.
// The season assets ship as .webp; the rest cover hand-replaced files.
var imageExtensions = []string{".webp", ".png", ".jpg", ".avif"}

// ImageStore locates circuit map images on disk by free-text location.
//
// Description:
//
//	Assets are named deterministically as <Canonical>_Circuit.<ext>
//	inside a fixed directory. Lookups resolve the location first, then
//	perform a read-only existence check; the store never mutates the
//	filesystem, so repeated calls with an unchanged directory return
//	identical results.
//
// Thread Safety: ImageStore is immutable after construction and safe
// for concurrent use.
type ImageStore struct {
	dir      string
	catalog  *Catalog
	resolver *Resolver
}

// NewImageStore creates an image store over the given asset directory.
//
// Inputs:
//   - dir: Directory containing <Canonical>_Circuit.<ext> assets.
//   - catalog: The canonical catalog.
//   - resolver: The location resolver. Must be built over the same catalog.
func NewImageStore(dir string, catalog *Catalog, resolver *Resolver) *ImageStore {
	slog.Info("Initialized circuit image store", slog.String("dir", dir))
	return &ImageStore{dir: dir, catalog: catalog, resolver: resolver}
}

// GetCircuitImage resolves a location and returns the image asset path.
//
// Description:
//
//	Outcomes, in order of checking:
//	  - location unresolved: error result, status "not_found", with the
//	    full catalog in metadata so the model can suggest alternatives;
//	  - resolved but asset absent: error result, status "file_missing",
//	    with the expected file name in metadata;
//	  - asset present: image result whose content is the absolute path.
//
// Inputs:
//   - locationText: Free-text circuit location (case-insensitive).
//
// Outputs:
//   - datatypes.ToolResult: Never an error value; failures are folded
//     into error-kind results.
//
// Thread Safety: This method is safe for concurrent use.
func (s *ImageStore) GetCircuitImage(locationText string) datatypes.ToolResult {
	slog.Debug("Retrieving circuit image", slog.String("location", locationText))

	canonical, ok := s.resolver.Resolve(locationText)
	if !ok {
		slog.Info("Circuit location not found", slog.String("input", locationText))
		return datatypes.ToolResult{
			Kind: datatypes.ResultError,
			Content: fmt.Sprintf("Circuit %q not found. Available circuits: %s",
				locationText, strings.Join(s.catalog.Names(), ", ")),
			Metadata: datatypes.ResultMetadata{
				Status:            datatypes.StatusNotFound,
				AvailableCircuits: s.catalog.Names(),
			},
		}
	}

	for _, ext := range imageExtensions {
		path := filepath.Join(s.dir, canonical+"_Circuit"+ext)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		slog.Debug("Circuit image found",
			slog.String("location", canonical),
			slog.String("path", abs),
		)
		return datatypes.ToolResult{
			Kind:    datatypes.ResultImage,
			Content: abs,
			Metadata: datatypes.ResultMetadata{
				Status:   datatypes.StatusSuccess,
				Location: canonical,
			},
		}
	}

	expected := canonical + "_Circuit" + imageExtensions[0]
	slog.Warn("Circuit image file missing",
		slog.String("location", canonical),
		slog.String("expected_file", expected),
	)
	return datatypes.ToolResult{
		Kind:    datatypes.ResultError,
		Content: fmt.Sprintf("Map image for %s is not available (expected %s)", canonical, expected),
		Metadata: datatypes.ResultMetadata{
			Status:       datatypes.StatusFileMissing,
			Location:     canonical,
			ExpectedFile: expected,
		},
	}
}

// ListAvailable returns, in catalog order, the canonical identifiers
// whose map asset exists on disk.
func (s *ImageStore) ListAvailable() []string {
	available := make([]string, 0, s.catalog.Len())
	for _, name := range s.catalog.Names() {
		for _, ext := range imageExtensions {
			info, err := os.Stat(filepath.Join(s.dir, name+"_Circuit"+ext))
			if err == nil && !info.IsDir() {
				available = append(available, name)
				break
			}
		}
	}
	return available
}
