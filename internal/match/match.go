// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match implements the exact and wildcard label matching used to
// identify sheets, sections, categories, and items across yearly template
// revisions.
//
// Drift tolerance comes only from normalization (case, surrounding and
// repeated whitespace) and from the explicit variants a schema declares.
// There is no edit-distance matching.
package match

import "strings"

// Tier records how a candidate matched a pattern. It is diagnostic only.
type Tier int

const (
	TierNone       Tier = iota
	TierExact           // trimmed candidate equals the pattern
	TierNormalized      // equal after case and whitespace normalization
	TierWildcard        // "*" pattern: stripped pattern is a substring
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierNormalized:
		return "normalized"
	case TierWildcard:
		return "wildcard"
	}
	return "none"
}

// Result locates a match within a sheet.
type Result struct {
	Row     int
	Column  int
	Variant string
	Tier    Tier
}

// Normalize lowercases s, collapses runs of whitespace to one space, and
// trims it.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Matches reports whether candidate matches pattern.
func Matches(candidate, pattern string) bool {
	return Classify(candidate, pattern) != TierNone
}

// Classify returns the tier at which candidate matches pattern.
//
// A pattern always matches its own literal text, so labels that contain a
// "*" (e.g. "Kindergärtner*innen") still match themselves. Otherwise a "*"
// anywhere in the pattern means the pattern with every "*" removed must
// appear in the normalized candidate. A pattern of only "*" matches any
// candidate.
func Classify(candidate, pattern string) Tier {
	if strings.TrimSpace(candidate) == strings.TrimSpace(pattern) {
		return TierExact
	}
	nc := Normalize(candidate)
	if nc == Normalize(pattern) {
		return TierNormalized
	}
	if !strings.Contains(pattern, "*") {
		return TierNone
	}
	if strings.Contains(nc, Normalize(strings.ReplaceAll(pattern, "*", ""))) {
		return TierWildcard
	}
	return TierNone
}

// Any tests candidate against every pattern. Literal matches win over
// wildcard matches regardless of pattern order; among equals the earlier
// pattern wins. It returns the matching pattern and its tier.
func Any(candidate string, patterns []string) (string, Tier, bool) {
	best, bestTier := "", TierNone
	for _, p := range patterns {
		t := Classify(candidate, p)
		if t == TierNone {
			continue
		}
		if bestTier == TierNone || t < bestTier {
			best, bestTier = p, t
		}
		if t == TierExact {
			break
		}
	}
	return best, bestTier, bestTier != TierNone
}
