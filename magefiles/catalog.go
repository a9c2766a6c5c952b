//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Catalog groups targets that manage the local study catalog.
type Catalog mg.Namespace

// Import loads a YAML or CSV export into data/studies.db.
// The source defaults to data/paper_summaries.csv; set CATALOG_SOURCE to override.
func (Catalog) Import() error {
	mg.Deps(Init)
	src := os.Getenv("CATALOG_SOURCE")
	if src == "" {
		src = "data/paper_summaries.csv"
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("catalog source: %w", err)
	}
	return sh.RunV("go", "run", cmdPkg, "studies", "import", src)
}

// Export writes the catalog to data/studies.yaml.
func (Catalog) Export() error {
	return sh.RunV("go", "run", cmdPkg, "studies", "export", "--format", "yaml", "--out", "data/studies.yaml")
}
