package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatter is the raw YAML shape of a governance front-matter block.
// All fields are decoded as strings so that every format problem can be
// reported, not just the first one yaml.v3 would hit with typed fields.
type frontMatter struct {
	DocKey            string `yaml:"doc_key"`
	Semver            string `yaml:"semver"`
	Status            string `yaml:"status"`
	EffectiveDate     string `yaml:"effective_date"`
	SupersedesVersion string `yaml:"supersedes_version"`
	Owner             string `yaml:"owner"`
	ContractType      string `yaml:"contract_type"`
}

// ParseDocument parses a governed document. It extracts the YAML front
// matter, validates every required field, and returns a Record with the
// document's content fingerprint.
//
// A document with no front-matter block, or whose front matter carries no
// doc_key, is not a versioned document: both return values are nil.
// A document that claims a doc_key but fails validation returns a
// *MalformedFrontMatterError enumerating every problem found.
//
// ParseDocument is a pure function of its inputs and never defaults a
// required field.
func ParseDocument(path string, content []byte) (*Record, error) {
	raw, ok := extractFrontMatter(string(content))
	if !ok {
		return nil, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, &MalformedFrontMatterError{
			Path:     path,
			Problems: []string{fmt.Sprintf("invalid YAML: %v", err)},
		}
	}

	if fm.DocKey == "" {
		// Front matter without doc_key marks an unversioned document.
		return nil, nil
	}

	record := &Record{
		DocKey: fm.DocKey,
		Path:   path,
		Owner:  fm.Owner,
		MFID:   Fingerprint(content),
	}

	var problems []string

	if fm.Semver == "" {
		problems = append(problems, "missing required field semver")
	} else if v, err := ParseVersion(fm.Semver); err != nil {
		problems = append(problems, err.Error())
	} else {
		record.Version = v
	}

	if fm.Status == "" {
		problems = append(problems, "missing required field status")
	} else if s := Status(fm.Status); !s.IsValid() {
		problems = append(problems, fmt.Sprintf("invalid status %q (must be one of: %s, %s, %s)",
			fm.Status, StatusActive, StatusDeprecated, StatusFrozen))
	} else {
		record.Status = s
	}

	if fm.EffectiveDate == "" {
		problems = append(problems, "missing required field effective_date")
	} else if d, err := ParseDate(fm.EffectiveDate); err != nil {
		problems = append(problems, err.Error())
	} else {
		record.EffectiveDate = d
	}

	if fm.Owner == "" {
		problems = append(problems, "missing required field owner")
	}

	if fm.ContractType == "" {
		problems = append(problems, "missing required field contract_type")
	} else if c := ContractType(fm.ContractType); !c.IsValid() {
		problems = append(problems, fmt.Sprintf("invalid contract_type %q (must be one of: %s, %s, %s)",
			fm.ContractType, ContractPolicy, ContractIntent, ContractExecution))
	} else {
		record.ContractType = c
	}

	if fm.SupersedesVersion != "" && !isYAMLNull(fm.SupersedesVersion) {
		v, err := ParseVersion(fm.SupersedesVersion)
		if err != nil {
			problems = append(problems, fmt.Sprintf("supersedes_version: %v", err))
		} else {
			record.SupersedesVersion = &v
		}
	}

	if len(problems) > 0 {
		return nil, &MalformedFrontMatterError{Path: path, Problems: problems}
	}

	return record, nil
}

// extractFrontMatter returns the YAML text between the opening and closing
// --- delimiters. The block must start at the first byte of the document.
func extractFrontMatter(content string) (string, bool) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", false
	}

	const delimiter = "---"

	start := len(delimiter)
	if len(content) > start && content[start] == '\r' {
		start++
	}
	if len(content) > start && content[start] == '\n' {
		start++
	}

	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		closeIdx = strings.Index(content[start:], "\r\n"+delimiter)
	}
	if closeIdx == -1 {
		return "", false
	}

	return content[start : start+closeIdx], true
}

// isYAMLNull reports whether a scalar spells a YAML null.
func isYAMLNull(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "~":
		return true
	}
	return false
}

// Fingerprint computes the mfid content fingerprint for a document:
// the sha256 of its full text, hex-encoded.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
