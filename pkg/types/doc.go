// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared across the extraction
// pipeline: the declarative ExtractionSchema, the ExtractedRecord and
// FailureEntry values a batch accumulates, inferred column types, and the
// run configuration.
package types
