package registry

import (
	"fmt"
	"strings"
)

// MalformedFrontMatterError reports a document whose front matter is
// missing required fields or fails format validation. It is local to one
// document: the scan records it and continues.
type MalformedFrontMatterError struct {
	// Path is the offending document.
	Path string
	// Problems enumerates every missing or malformed field found.
	Problems []string
}

func (e *MalformedFrontMatterError) Error() string {
	return fmt.Sprintf("%s: malformed front matter: %s", e.Path, strings.Join(e.Problems, "; "))
}

// DuplicateKeyError reports two documents claiming the same doc_key.
// Any duplicate fails the registry build as a whole.
type DuplicateKeyError struct {
	DocKey string
	// FirstPath is the document that claimed the key first (in scan order).
	FirstPath string
	// SecondPath is the conflicting document.
	SecondPath string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate doc_key %q: %s and %s", e.DocKey, e.FirstPath, e.SecondPath)
}

// BumpRule identifies which version-bump rule a proposed change violated.
type BumpRule string

const (
	// RuleMonotonic requires the new version to be strictly greater than
	// the previous one.
	RuleMonotonic BumpRule = "monotonic"
	// RuleIntentMatch requires the changed version component to match the
	// declared intent exactly.
	RuleIntentMatch BumpRule = "intent_match"
	// RuleExecutionContract forbids minor bumps on execution contracts.
	RuleExecutionContract BumpRule = "execution_contract"
	// RuleSupersedes requires supersedes_version to equal the previous
	// version exactly.
	RuleSupersedes BumpRule = "supersedes"
)

// InvalidBumpError reports a rejected version bump and names the rule
// that failed.
type InvalidBumpError struct {
	DocKey string
	Rule   BumpRule
	Reason string
}

func (e *InvalidBumpError) Error() string {
	return fmt.Sprintf("invalid bump for %q (rule %s): %s", e.DocKey, e.Rule, e.Reason)
}

// InvalidIdentifierError reports a doc_key that cannot be embedded in the
// tag namespace.
type InvalidIdentifierError struct {
	DocKey string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("doc_key %q contains characters unsafe for tags (allowed: alphanumerics, _ and -)", e.DocKey)
}
