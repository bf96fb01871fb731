package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultScanRoots are the directories scanned for governed documents
// when no roots are configured.
var DefaultScanRoots = []string{"docs", "plans"}

// DefaultScanPattern matches governed document files under a scan root.
const DefaultScanPattern = "**/*.md"

// Registry maps doc_key to the current Record for that key. It is built
// fresh on every invocation and holds no state across runs; callers thread
// the returned value through subsequent stages.
type Registry struct {
	records map[string]*Record
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Get returns the record for a doc_key, or nil if absent.
func (r *Registry) Get(docKey string) *Record {
	return r.records[docKey]
}

// Len returns the number of records in the registry.
func (r *Registry) Len() int {
	return len(r.records)
}

// Keys returns all doc_keys in lexicographic order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.records))
	for k := range r.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Records returns all records ordered by doc_key.
func (r *Registry) Records() []*Record {
	records := make([]*Record, 0, len(r.records))
	for _, k := range r.Keys() {
		records = append(records, r.records[k])
	}
	return records
}

// insert adds a record, reporting a conflict if the doc_key is taken.
// The first claimant keeps the map slot; the build still fails.
func (r *Registry) insert(record *Record) *DuplicateKeyError {
	if existing, ok := r.records[record.DocKey]; ok {
		return &DuplicateKeyError{
			DocKey:     record.DocKey,
			FirstPath:  existing.Path,
			SecondPath: record.Path,
		}
	}
	r.records[record.DocKey] = record
	return nil
}

// SnapshotEntry is the per-document shape of the registry snapshot
// artifact.
type SnapshotEntry struct {
	Path   string `json:"path"`
	Semver string `json:"semver"`
	Status Status `json:"status"`
	MFID   string `json:"mfid"`
}

// WriteSnapshot serializes the registry as a doc_key-keyed JSON mapping of
// {path, semver, status, mfid} to the given path, creating parent
// directories as needed. encoding/json sorts map keys, so output is
// deterministic for identical registries.
func (r *Registry) WriteSnapshot(path string) error {
	entries := make(map[string]SnapshotEntry, len(r.records))
	for key, record := range r.records {
		entries[key] = SnapshotEntry{
			Path:   record.Path,
			Semver: record.Version.String(),
			Status: record.Status,
			MFID:   record.MFID,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write registry snapshot: %w", err)
	}

	return nil
}

// ReadSnapshot loads a registry snapshot artifact, e.g. the baseline from
// another branch for bump validation.
func ReadSnapshot(path string) (map[string]SnapshotEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry snapshot: %w", err)
	}

	var entries map[string]SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse registry snapshot %s: %w", path, err)
	}
	return entries, nil
}

// Builder scans document trees and assembles a Registry, accumulating
// every problem found so one invocation reports them all.
type Builder struct {
	repoRoot string
	roots    []string
	pattern  string
	workers  int
	logger   *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithScanRoots overrides the directories scanned under the repo root.
func WithScanRoots(roots ...string) BuilderOption {
	return func(b *Builder) {
		if len(roots) > 0 {
			b.roots = roots
		}
	}
}

// WithScanPattern overrides the doublestar pattern matched within each root.
func WithScanPattern(pattern string) BuilderOption {
	return func(b *Builder) {
		if pattern != "" {
			b.pattern = pattern
		}
	}
}

// WithWorkers sets the number of concurrent parse workers. Values below 2
// select the single-pass sequential scan.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the builder's logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder rooted at repoRoot.
func NewBuilder(repoRoot string, opts ...BuilderOption) *Builder {
	b := &Builder{
		repoRoot: repoRoot,
		roots:    DefaultScanRoots,
		pattern:  DefaultScanPattern,
		workers:  1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build scans the configured roots and returns the registry together with
// a report of every problem found. The registry is only valid output when
// report.OK() is true; a build with any conflict or parse failure is
// rejected as a whole so a governance record can never be lost silently.
func (b *Builder) Build() (*Registry, *Report) {
	report := NewReport()

	paths, err := b.listDocuments()
	if err != nil {
		report.AddError(err)
		return NewRegistry(), report
	}

	results := b.parseAll(paths)

	// Merge in path order at a single point, so duplicate detection
	// behaves as if all inserts happened under one global order no
	// matter how parsing was scheduled.
	reg := NewRegistry()
	for _, res := range results {
		switch {
		case res.err != nil:
			report.AddError(res.err)
		case res.record == nil:
			// Not a versioned document.
		default:
			if dup := reg.insert(res.record); dup != nil {
				report.AddError(dup)
			}
		}
	}

	b.logger.Debug("Registry build complete",
		"documents", reg.Len(),
		"scanned", len(paths),
		"problems", report.Len())

	return reg, report
}

// parseResult pairs a parsed record (or skip) with any error for one path.
type parseResult struct {
	path   string
	record *Record
	err    error
}

// parseAll parses every document, concurrently when workers > 1. Results
// come back in the same deterministic path order regardless of scheduling.
func (b *Builder) parseAll(paths []string) []parseResult {
	results := make([]parseResult, len(paths))

	if b.workers <= 1 {
		for i, p := range paths {
			results[i] = b.parseOne(p)
		}
		return results
	}

	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.parseOne(paths[i])
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// parseOne reads and parses a single document. An I/O failure is fatal to
// that document only.
func (b *Builder) parseOne(relPath string) parseResult {
	content, err := os.ReadFile(filepath.Join(b.repoRoot, relPath))
	if err != nil {
		return parseResult{path: relPath, err: fmt.Errorf("read %s: %w", relPath, err)}
	}

	record, err := ParseDocument(relPath, content)
	return parseResult{path: relPath, record: record, err: err}
}

// listDocuments returns every matching document path, relative to the repo
// root, in lexicographic order. Missing scan roots are skipped.
func (b *Builder) listDocuments() ([]string, error) {
	var paths []string

	for _, root := range b.roots {
		rootDir := filepath.Join(b.repoRoot, root)
		if info, err := os.Stat(rootDir); err != nil || !info.IsDir() {
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(rootDir), b.pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s under %s: %w", b.pattern, root, err)
		}

		for _, m := range matches {
			paths = append(paths, filepath.ToSlash(filepath.Join(root, m)))
		}
	}

	sort.Strings(paths)
	return paths, nil
}
