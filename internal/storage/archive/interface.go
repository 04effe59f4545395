package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/tradekit/osprey/internal/universe"
)

// Storage defines the interface for report archive backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Archive persists run reports as JSON documents on a Storage backend.
type Archive struct {
	store Storage
}

// New creates an Archive over the given backend.
func New(store Storage) *Archive {
	return &Archive{store: store}
}

// reportPath lays reports out by run date so backends list them in order.
func reportPath(r *universe.Report) string {
	return path.Join(
		"reports",
		r.RanAt.UTC().Format("2006/01"),
		fmt.Sprintf("run-%s-%s.json", r.RanAt.UTC().Format("20060102T150405Z"), r.ID),
	)
}

// SaveReport serializes a run report and writes it to the backend.
func (a *Archive) SaveReport(ctx context.Context, r *universe.Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	p := reportPath(r)
	if err := a.store.Write(ctx, p, data); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return p, nil
}

// LoadReport reads a previously saved report back.
func (a *Archive) LoadReport(ctx context.Context, p string) (*universe.Report, error) {
	data, err := a.store.Read(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r universe.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &r, nil
}

// ListReports returns the paths of all archived reports, oldest first.
// Anything under the prefix that is not a run report (manual notes, backend
// artifacts) is skipped.
func (a *Archive) ListReports(ctx context.Context) ([]string, error) {
	paths, err := a.store.List(ctx, "reports")
	if err != nil {
		return nil, err
	}

	reports := paths[:0]
	for _, p := range paths {
		base := path.Base(p)
		if strings.HasPrefix(base, "run-") && strings.HasSuffix(base, ".json") {
			reports = append(reports, p)
		}
	}
	// The run timestamp is embedded in the path, so lexical order is
	// chronological order.
	sort.Strings(reports)
	return reports, nil
}
