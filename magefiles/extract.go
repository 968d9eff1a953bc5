//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Extract runs one extraction type over input/ into output/, CSV only.
// Usage: mage extract personalausgaben
func Extract(typ string) error {
	mg.Deps(Build)
	if typ == "" {
		return fmt.Errorf("extraction type is required")
	}
	return sh.RunV(binPath, "extract", "--type", typ, "--no-sql")
}

// ExtractAll runs every extraction type listed by the schema directory.
func ExtractAll() error {
	mg.Deps(Build)
	for _, typ := range []string{"personalausgaben", "sachausgaben", "oeffnungszeiten", "einnahmen"} {
		if err := sh.RunV(binPath, "extract", "--type", typ); err != nil {
			return fmt.Errorf("extracting %s: %w", typ, err)
		}
	}
	return nil
}
