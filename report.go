package probe

import (
	"encoding/json"
	"fmt"
)

// Report is the analysis output for one resource. Text is the engine's
// report document, carried as opaque text; the analyzer validates only
// that it is non-blank.
type Report struct {
	// Resource is the identity of the analyzed resource.
	Resource string

	// Size is the resource's total length in bytes.
	Size int64

	// Text is the report document as produced by the engine.
	Text string
}

// Decode unmarshals the report text into v. It is a convenience for
// engines configured to emit JSON reports.
func (r *Report) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.Text), v); err != nil {
		return fmt.Errorf("decode report for %s: %w", r.Resource, err)
	}
	return nil
}
