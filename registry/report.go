package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Report accumulates every problem found during a registry build or
// change validation, so CI consumers see the full set of failures from a
// single invocation instead of stopping at the first.
type Report struct {
	errs []error
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{}
}

// AddError records a problem.
func (r *Report) AddError(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// OK returns true if no problems were recorded.
func (r *Report) OK() bool {
	return len(r.errs) == 0
}

// Len returns the number of recorded problems.
func (r *Report) Len() int {
	return len(r.errs)
}

// Errors returns the recorded problems in the order found.
func (r *Report) Errors() []error {
	return r.errs
}

// Duplicates returns the recorded duplicate-key conflicts.
func (r *Report) Duplicates() []*DuplicateKeyError {
	var dups []*DuplicateKeyError
	for _, err := range r.errs {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			dups = append(dups, dup)
		}
	}
	return dups
}

// Malformed returns the recorded front-matter failures.
func (r *Report) Malformed() []*MalformedFrontMatterError {
	var malformed []*MalformedFrontMatterError
	for _, err := range r.errs {
		var m *MalformedFrontMatterError
		if errors.As(err, &m) {
			malformed = append(malformed, m)
		}
	}
	return malformed
}

// String renders the report as human-readable text for terminal output.
func (r *Report) String() string {
	if r.OK() {
		return "no problems found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d problem(s) found:\n", len(r.errs))
	for _, err := range r.errs {
		fmt.Fprintf(&sb, "  - %v\n", err)
	}
	return sb.String()
}

// reportJSON is the machine-readable report shape.
type reportJSON struct {
	OK       bool     `json:"ok"`
	Problems []string `json:"problems"`
}

// MarshalJSON renders the report for CI consumers.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{OK: r.OK(), Problems: make([]string, 0, len(r.errs))}
	for _, err := range r.errs {
		out.Problems = append(out.Problems, err.Error())
	}
	return json.Marshal(out)
}
