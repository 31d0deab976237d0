package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spotdeck/spotdeck/pkg/pipeline"
)

// validFormatExt reports whether s is a known output format extension.
func validFormatExt(s string) bool {
	return pipeline.ValidFormats[s]
}

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][][]byte
	formats   []string
	base      string
}

// writeArtifacts writes rendered artifacts to disk and returns the paths
// written. Single-page formats get base.ext; multi-page sheet formats get
// base_p1.ext, base_p2.ext, and so on.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	var paths []string
	for _, format := range p.formats {
		pages, ok := p.artifacts[format]
		if !ok {
			continue
		}
		for i, page := range pages {
			path := artifactPath(p.base, format, i, len(pages))
			if err := os.WriteFile(path, page, 0o644); err != nil {
				return paths, fmt.Errorf("write %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// artifactPath builds the output path for one page of one format.
func artifactPath(base, format string, page, total int) string {
	if total <= 1 {
		return fmt.Sprintf("%s.%s", base, format)
	}
	return fmt.Sprintf("%s_p%d.%s", base, page+1, format)
}

// outputBase derives the base output path from the --output flag and a
// fallback name. A format extension on the output flag is stripped so
// "deck.svg" and "deck" behave the same.
func outputBase(output, fallback string) string {
	if output == "" {
		return sanitizeName(fallback)
	}
	ext := filepath.Ext(output)
	if validFormatExt(strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// sanitizeName turns a free-form deck name into a file-friendly base path.
func sanitizeName(name string) string {
	if name == "" {
		return "deck"
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, name)
	mapped = strings.Trim(mapped, "-")
	if mapped == "" {
		return "deck"
	}
	return mapped
}
