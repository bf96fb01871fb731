// Package registry builds and validates the governed-document registry.
// It scans document trees for markdown files carrying YAML front matter,
// enforces doc_key uniqueness and version-bump rules, and produces
// auditable snapshot artifacts.
package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle state of a governed document.
type Status string

const (
	// StatusActive indicates the document is currently in force.
	StatusActive Status = "active"
	// StatusDeprecated indicates the document has been superseded but is
	// retained for history.
	StatusDeprecated Status = "deprecated"
	// StatusFrozen indicates the document is locked and accepts no further
	// changes.
	StatusFrozen Status = "frozen"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusDeprecated, StatusFrozen:
		return true
	}
	return false
}

// ContractType categorizes a governed document by the strength of the
// contract it expresses.
type ContractType string

const (
	// ContractPolicy is a general policy document.
	ContractPolicy ContractType = "policy"
	// ContractIntent records intended direction without binding guarantees.
	ContractIntent ContractType = "intent"
	// ContractExecution is a binding execution contract. Execution contracts
	// have restricted version-bump rules: minor bumps are forbidden.
	ContractExecution ContractType = "execution_contract"
)

// String returns the string representation of the contract type.
func (c ContractType) String() string {
	return string(c)
}

// IsValid returns true if the contract type is recognized.
func (c ContractType) IsValid() bool {
	switch c {
	case ContractPolicy, ContractIntent, ContractExecution:
		return true
	}
	return false
}

// Version is a semantic version triple. Ordering is lexicographic on
// (major, minor, patch).
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a MAJOR.MINOR.PATCH string into a Version.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid semver %q: want MAJOR.MINOR.PATCH", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		// Digits only: Atoi alone would accept sign characters, letting
		// distinct spellings like "+2" collapse into one Version.
		if part == "" || !isDigits(part) || (len(part) > 1 && part[0] == '0') {
			return Version{}, fmt.Errorf("invalid semver %q: component %q is not a non-negative integer", s, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("invalid semver %q: component %q is not a non-negative integer", s, part)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String returns the MAJOR.MINOR.PATCH form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater
// than other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	return sign(v.Patch - other.Patch)
}

// Less reports whether v orders strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// MarshalYAML serializes the version as a MAJOR.MINOR.PATCH string.
func (v Version) MarshalYAML() (any, error) {
	return v.String(), nil
}

// MarshalJSON serializes the version as a MAJOR.MINOR.PATCH string.
func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.String())), nil
}

// UnmarshalJSON parses a quoted MAJOR.MINOR.PATCH string.
func (v *Version) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid semver JSON: %w", err)
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// effectiveDateLayout is the required effective_date format.
const effectiveDateLayout = "2006-01-02"

// Date is a calendar date. It serializes as YYYY-MM-DD, matching the
// effective_date front-matter format.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(effectiveDateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// String returns the YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(effectiveDateLayout)
}

// MarshalJSON serializes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON parses a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid date JSON: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Record is a single governed document entry in the registry.
// Records are never deleted: a change creates a new record with a bumped
// version, and prior versions survive in history as deprecated or frozen.
type Record struct {
	// DocKey is the permanent unique identifier for the document,
	// independent of its version. Immutable once assigned.
	DocKey string `json:"doc_key"`

	// Path is the document location relative to the repository root.
	Path string `json:"path"`

	// Version is the document's semantic version.
	Version Version `json:"semver"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// EffectiveDate is the date the document version took effect.
	EffectiveDate Date `json:"effective_date"`

	// SupersedesVersion is the version immediately preceding this one,
	// forming a linear chain per doc_key. Nil for a first version.
	SupersedesVersion *Version `json:"supersedes_version,omitempty"`

	// Owner identifies the responsible team.
	Owner string `json:"owner"`

	// ContractType categorizes the document's contract strength.
	ContractType ContractType `json:"contract_type"`

	// MFID is the sha256 content fingerprint of the source document,
	// recorded for integrity and audit purposes.
	MFID string `json:"mfid"`
}
