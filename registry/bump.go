package registry

import "fmt"

// Intent is the declared change intent accompanying a proposed version
// bump, derived externally from the change description.
type Intent string

const (
	// IntentPatch declares a backwards-compatible fix.
	IntentPatch Intent = "patch"
	// IntentMinor declares a backwards-compatible addition.
	IntentMinor Intent = "minor"
	// IntentMajor declares a breaking change.
	IntentMajor Intent = "major"
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	return string(i)
}

// IsValid returns true if the intent is recognized.
func (i Intent) IsValid() bool {
	switch i {
	case IntentPatch, IntentMinor, IntentMajor:
		return true
	}
	return false
}

// BumpDecision is the accepted outcome of validating a proposed change.
type BumpDecision struct {
	DocKey string
	From   *Version
	To     Version
	Intent Intent

	// FirstVersion records the one-time exception for a document's
	// initial version, which is accepted at any starting semver.
	FirstVersion bool
}

// ValidateBump checks a proposed new record against the previous record
// for its doc_key and the declared change intent. previous is nil for a
// document's first version. It returns the accepted decision, or an
// *InvalidBumpError naming the rule that failed.
//
// The intent/component relationship is exact, not merely compatible: a
// patch intent with a minor numeric bump is rejected, and vice versa.
func ValidateBump(previous *Record, candidate *Record, intent Intent) (*BumpDecision, error) {
	if !intent.IsValid() {
		return nil, &InvalidBumpError{
			DocKey: candidate.DocKey,
			Rule:   RuleIntentMatch,
			Reason: fmt.Sprintf("unknown intent %q", intent),
		}
	}

	// Rule 1: no previous record means any starting version is accepted,
	// recorded as the one-time exception.
	if previous == nil {
		if candidate.SupersedesVersion != nil {
			return nil, &InvalidBumpError{
				DocKey: candidate.DocKey,
				Rule:   RuleSupersedes,
				Reason: fmt.Sprintf("first version must not supersede anything, got %s", candidate.SupersedesVersion),
			}
		}
		return &BumpDecision{
			DocKey:       candidate.DocKey,
			To:           candidate.Version,
			Intent:       intent,
			FirstVersion: true,
		}, nil
	}

	prev, next := previous.Version, candidate.Version

	// Rule 2: strict monotonic increase under (major, minor, patch).
	if !prev.Less(next) {
		return nil, &InvalidBumpError{
			DocKey: candidate.DocKey,
			Rule:   RuleMonotonic,
			Reason: fmt.Sprintf("new version %s is not strictly greater than %s", next, prev),
		}
	}

	// Rule 3: the changed component must match the declared intent.
	if err := checkIntentMatch(candidate.DocKey, prev, next, intent); err != nil {
		return nil, err
	}

	// Rule 4: execution contracts never take minor bumps.
	if candidate.ContractType == ContractExecution && intent == IntentMinor {
		return nil, &InvalidBumpError{
			DocKey: candidate.DocKey,
			Rule:   RuleExecutionContract,
			Reason: "minor bumps are forbidden for execution contracts",
		}
	}

	// Rule 5: the supersedes chain must name the immediate predecessor.
	if candidate.SupersedesVersion == nil {
		return nil, &InvalidBumpError{
			DocKey: candidate.DocKey,
			Rule:   RuleSupersedes,
			Reason: fmt.Sprintf("supersedes_version is required and must equal %s", prev),
		}
	}
	if candidate.SupersedesVersion.Compare(prev) != 0 {
		return nil, &InvalidBumpError{
			DocKey: candidate.DocKey,
			Rule:   RuleSupersedes,
			Reason: fmt.Sprintf("supersedes_version %s does not equal previous version %s", candidate.SupersedesVersion, prev),
		}
	}

	return &BumpDecision{
		DocKey: candidate.DocKey,
		From:   &prev,
		To:     next,
		Intent: intent,
	}, nil
}

// checkIntentMatch verifies the shape of the numeric bump for each intent:
// patch increments patch only; minor increments minor and resets patch to
// 0; major increments major and resets minor and patch to 0.
func checkIntentMatch(docKey string, prev, next Version, intent Intent) error {
	ok := false
	want := ""
	switch intent {
	case IntentPatch:
		ok = next.Major == prev.Major && next.Minor == prev.Minor && next.Patch > prev.Patch
		want = fmt.Sprintf("%d.%d.>%d", prev.Major, prev.Minor, prev.Patch)
	case IntentMinor:
		ok = next.Major == prev.Major && next.Minor > prev.Minor && next.Patch == 0
		want = fmt.Sprintf("%d.>%d.0", prev.Major, prev.Minor)
	case IntentMajor:
		ok = next.Major > prev.Major && next.Minor == 0 && next.Patch == 0
		want = fmt.Sprintf(">%d.0.0", prev.Major)
	}

	if !ok {
		return &InvalidBumpError{
			DocKey: docKey,
			Rule:   RuleIntentMatch,
			Reason: fmt.Sprintf("intent %s from %s requires %s, got %s", intent, prev, want, next),
		}
	}
	return nil
}
