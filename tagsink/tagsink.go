// Package tagsink sends derived document version tags to the external
// version-control collaborator. The validation core only computes tag
// names; creating and pushing them happens behind the Sink capability so
// the core stays pure and testable.
package tagsink

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Sink accepts tag creation requests.
type Sink interface {
	// EnsureTag creates the named annotated tag if it does not already
	// exist. Creating a tag that exists with the same target is not an
	// error; tags in the docs namespace are immutable once created.
	EnsureTag(ctx context.Context, name, message string) error
}

// Noop discards tag requests. Used for dry runs and check-only modes.
type Noop struct{}

// EnsureTag does nothing.
func (Noop) EnsureTag(context.Context, string, string) error {
	return nil
}

// Git creates annotated tags in a local repository via the git CLI.
type Git struct {
	gitPath  string
	repoPath string
}

// NewGit creates a git tag sink for the repository at repoPath.
// It verifies that git is available on the system.
func NewGit(ctx context.Context, repoPath string) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}

	return &Git{gitPath: gitPath, repoPath: repoPath}, nil
}

// EnsureTag creates an annotated tag at HEAD unless it already exists.
func (g *Git) EnsureTag(ctx context.Context, name, message string) error {
	exists, err := g.tagExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	cmd := exec.CommandContext(ctx, g.gitPath, "-C", g.repoPath, "tag", "-a", name, "-m", message)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git tag %s failed: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// tagExists checks whether a tag is already present in the repository.
func (g *Git) tagExists(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", g.repoPath, "tag", "--list", name)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git tag --list failed: %w", err)
	}
	return strings.TrimSpace(string(output)) == name, nil
}
