// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// workbookExts are the file extensions treated as input workbooks.
var workbookExts = map[string]bool{".xlsx": true, ".xlsm": true}

// discoverWorkbooks returns the workbook files in dir sorted by name. Office
// lock files (~$...) and hidden files are skipped. With limit > 0 at most
// limit files are returned.
func discoverWorkbooks(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		if !workbookExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		files = append(files, filepath.Join(dir, name))
		if limit > 0 && len(files) == limit {
			break
		}
	}
	return files, nil
}
