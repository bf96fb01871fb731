package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/docreg/registry"
)

// Options control how an ingested page becomes a governed document.
type Options struct {
	// DocKey overrides the doc_key derived from the page title.
	DocKey string
	// Owner is the responsible team recorded in the front matter.
	Owner string
	// ContractType defaults to policy.
	ContractType registry.ContractType
}

// Result describes an ingested document.
type Result struct {
	DocKey string
	Path   string
	Title  string
}

// Ingester turns an externally published HTTPS policy page into a
// governed markdown document with scaffolded front matter. The new
// document enters the registry at version 1.0.0 on the next build.
type Ingester struct {
	fetcher   *Fetcher
	converter *Converter
	repoRoot  string
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewIngester creates an ingester writing documents under
// repoRoot/outputDir.
func NewIngester(fetcher *Fetcher, repoRoot, outputDir string, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		fetcher:   fetcher,
		converter: NewConverter(),
		repoRoot:  repoRoot,
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Ingest fetches, converts, and writes one document. It refuses to
// overwrite an existing file: ingested documents are starting points for
// the normal versioning workflow, not a sync mechanism.
func (i *Ingester) Ingest(ctx context.Context, url string, opts Options) (*Result, error) {
	body, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	converted, err := i.converter.Convert(body)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", url, err)
	}

	docKey := opts.DocKey
	if docKey == "" {
		docKey = Slug(converted.Title)
	}
	if docKey == "" {
		return nil, fmt.Errorf("cannot derive doc_key from %s: page has no usable title (use an explicit key)", url)
	}
	if _, err := registry.DeriveTag(docKey, registry.Version{Major: 1}); err != nil {
		return nil, err
	}

	if opts.Owner == "" {
		return nil, fmt.Errorf("owner is required: ingested documents enter the registry fully attributed")
	}

	contractType := opts.ContractType
	if contractType == "" {
		contractType = registry.ContractPolicy
	}
	if !contractType.IsValid() {
		return nil, fmt.Errorf("invalid contract_type %q", contractType)
	}

	doc := i.renderDocument(docKey, url, opts.Owner, contractType, converted)

	relPath := filepath.Join(i.outputDir, docKey+".md")
	absPath := filepath.Join(i.repoRoot, relPath)
	if _, err := os.Stat(absPath); err == nil {
		return nil, fmt.Errorf("document already exists: %s", relPath)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(absPath, []byte(doc), 0644); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	i.logger.Info("Document ingested",
		"doc_key", docKey,
		"path", relPath,
		"source", url)

	return &Result{DocKey: docKey, Path: relPath, Title: converted.Title}, nil
}

// renderDocument assembles the governed document: scaffolded front matter
// followed by the converted markdown body.
func (i *Ingester) renderDocument(docKey, url, owner string, contractType registry.ContractType, converted *ConvertResult) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "doc_key: %s\n", docKey)
	sb.WriteString("semver: 1.0.0\n")
	fmt.Fprintf(&sb, "status: %s\n", registry.StatusActive)
	fmt.Fprintf(&sb, "effective_date: %s\n", i.now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&sb, "owner: %s\n", owner)
	fmt.Fprintf(&sb, "contract_type: %s\n", contractType)
	fmt.Fprintf(&sb, "source_url: %s\n", url)
	sb.WriteString("---\n\n")

	if converted.Title != "" && !strings.HasPrefix(converted.Markdown, "# ") {
		fmt.Fprintf(&sb, "# %s\n\n", converted.Title)
	}
	sb.WriteString(converted.Markdown)
	sb.WriteString("\n")

	return sb.String()
}

// Slug derives a tag-safe doc_key from a page title.
func Slug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
