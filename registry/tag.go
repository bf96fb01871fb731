package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// TagPrefix is the namespace prefix for document version tags.
const TagPrefix = "docs-"

// docKeyPattern restricts doc_keys embedded in tag names to characters
// safe for the tag namespace.
var docKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// DeriveTag computes the canonical immutable tag name for a
// (doc_key, version) pair: docs-{doc_key}-{major}.{minor}.{patch}.
// Derivation is pure; creating or pushing the tag is the version-control
// collaborator's responsibility.
func DeriveTag(docKey string, version Version) (string, error) {
	if !docKeyPattern.MatchString(docKey) {
		return "", &InvalidIdentifierError{DocKey: docKey}
	}
	return fmt.Sprintf("%s%s-%s", TagPrefix, docKey, version), nil
}

// ParseTag recovers the doc_key and version from a canonical tag name.
// It is the exact inverse of DeriveTag for every valid doc_key.
func ParseTag(tag string) (string, Version, error) {
	rest, ok := strings.CutPrefix(tag, TagPrefix)
	if !ok {
		return "", Version{}, fmt.Errorf("tag %q is outside the %s namespace", tag, TagPrefix)
	}

	// The doc_key may itself contain dashes; the version is everything
	// after the last dash.
	idx := strings.LastIndex(rest, "-")
	if idx <= 0 || idx == len(rest)-1 {
		return "", Version{}, fmt.Errorf("tag %q has no version suffix", tag)
	}

	docKey := rest[:idx]
	version, err := ParseVersion(rest[idx+1:])
	if err != nil {
		return "", Version{}, fmt.Errorf("tag %q: %w", tag, err)
	}
	if !docKeyPattern.MatchString(docKey) {
		return "", Version{}, &InvalidIdentifierError{DocKey: docKey}
	}

	return docKey, version, nil
}
