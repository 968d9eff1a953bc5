// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves credentials for the relational sink. Secrets come
// from a directory of plain-text files (file name is the key, trimmed contents
// the value) and from a dotenv file; key files win over dotenv entries.
//
// Recognized keys: database-dsn (DATABASE_DSN in .env).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DatabaseDSN is the key of the relational sink connection string.
const DatabaseDSN = "database-dsn"

// Load reads every key file in dir. A missing directory is not an error and
// yields an empty map. Unreadable files are reported to stderr and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// LoadDotenv reads a dotenv file and returns its entries under secret key
// names: DATABASE_DSN becomes database-dsn. A missing file yields an empty
// map.
func LoadDotenv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading dotenv %s: %w", path, err)
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if v = strings.TrimSpace(v); v != "" {
			out[KeyName(k)] = v
		}
	}
	return out, nil
}

// LoadAll merges the dotenv file with the key-file directory.
func LoadAll(dir, dotenv string) (map[string]string, error) {
	merged, err := LoadDotenv(dotenv)
	if err != nil {
		return nil, err
	}
	files, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for k, v := range files {
		merged[k] = v
	}
	return merged, nil
}

// KeyName maps an environment variable name to its secret key name.
func KeyName(env string) string {
	return strings.ReplaceAll(strings.ToLower(env), "_", "-")
}
