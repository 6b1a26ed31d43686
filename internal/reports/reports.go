// Package reports materializes the per-use-case report manifests after a
// completed demo run. Report files are generated placeholders; the manifests
// (names, sizes, descriptions) come from the content catalog.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/store"
)

type Report struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        string    `json:"size"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	DownloadURL string    `json:"download_url"`
	Generated   bool      `json:"generated"`
}

type Service struct {
	store   *store.Store
	catalog *content.Catalog
	dir     string
}

func New(s *store.Store, catalog *content.Catalog, dir string) *Service {
	return &Service{store: s, catalog: catalog, dir: dir}
}

// Generate writes the report files for useCaseID after a run completes.
// Existing files are overwritten so every run refreshes the timestamps.
func (s *Service) Generate(useCaseID, runID string) ([]Report, error) {
	specs := s.catalog.ReportsFor(useCaseID)
	dir := filepath.Join(s.dir, useCaseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	out := make([]Report, 0, len(specs))
	for _, spec := range specs {
		id := slug(spec.Name)
		body := fmt.Sprintf("%s\nGenerated for use case %s (run %s) at %s\n\n%s\n",
			spec.Name, useCaseID, runID, time.Now().UTC().Format(time.RFC3339), spec.Description)
		path := filepath.Join(dir, id)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("write report %s: %w", spec.Name, err)
		}
		out = append(out, s.toReport(useCaseID, spec, time.Now(), true))
	}
	return out, nil
}

// List returns the manifest for useCaseID, marking which reports have been
// generated by a run so far.
func (s *Service) List(useCaseID string) []Report {
	specs := s.catalog.ReportsFor(useCaseID)
	out := make([]Report, 0, len(specs))
	for _, spec := range specs {
		ts := time.Now()
		generated := false
		if info, err := os.Stat(filepath.Join(s.dir, useCaseID, slug(spec.Name))); err == nil {
			ts = info.ModTime()
			generated = true
		}
		out = append(out, s.toReport(useCaseID, spec, ts, generated))
	}
	return out
}

// Download returns the generated file for reportID and records an audit
// row. A failed lookup is recorded too; failures never block other
// downloads.
func (s *Service) Download(useCaseID, reportID string) ([]byte, string, error) {
	name := reportID
	for _, spec := range s.catalog.ReportsFor(useCaseID) {
		if slug(spec.Name) == reportID {
			name = spec.Name
			break
		}
	}

	data, err := os.ReadFile(filepath.Join(s.dir, useCaseID, reportID))
	if err != nil {
		_ = s.store.RecordDownload(reportID, name, useCaseID, "failed")
		return nil, "", fmt.Errorf("read report %s: %w", reportID, err)
	}

	if err := s.store.RecordDownload(reportID, name, useCaseID, "ok"); err != nil {
		return nil, "", err
	}
	return data, name, nil
}

func (s *Service) toReport(useCaseID string, spec content.ReportSpec, ts time.Time, generated bool) Report {
	id := slug(spec.Name)
	return Report{
		ID:          id,
		Name:        spec.Name,
		Size:        spec.Size,
		Description: spec.Description,
		Category:    spec.Category,
		Timestamp:   ts,
		DownloadURL: fmt.Sprintf("/api/reports/%s/%s/download", useCaseID, id),
		Generated:   generated,
	}
}

func slug(name string) string {
	s := strings.ToLower(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		case r == ' ' || r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
	return s
}
