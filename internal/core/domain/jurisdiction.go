package domain

import (
	"fmt"
	"strings"
)

// Jurisdiction identifies one government record-keeping region,
// e.g. a US county within a state.
type Jurisdiction struct {
	// Region is the top-level administrative code (e.g., "MD").
	Region string

	// Subregion is the record-keeping unit within the region
	// (e.g., "Montgomery").
	Subregion string
}

// Key returns the canonical lookup key, e.g. "md/montgomery".
// Case and surrounding whitespace are normalized so that
// {MD, Montgomery} and {md, montgomery } address the same source.
func (j Jurisdiction) Key() string {
	region := strings.ToLower(strings.TrimSpace(j.Region))
	sub := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(j.Subregion)), " ", "_")
	return region + "/" + sub
}

// String returns a display form, e.g. "Montgomery, MD".
func (j Jurisdiction) String() string {
	return fmt.Sprintf("%s, %s", j.Subregion, j.Region)
}

// IsZero reports whether both fields are empty.
func (j Jurisdiction) IsZero() bool {
	return strings.TrimSpace(j.Region) == "" && strings.TrimSpace(j.Subregion) == ""
}
