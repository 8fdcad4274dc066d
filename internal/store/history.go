package store

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/color-validator-mcp/internal/matcher"
)

// AnalysisRecord is the history entry written for every completed analysis.
type AnalysisRecord struct {
	ID          string         `yaml:"id" json:"id"`
	FileName    string         `yaml:"file_name" json:"file_name"`
	ProfileID   string         `yaml:"profile_id" json:"profile_id"`
	ProfileName string         `yaml:"profile_name" json:"profile_name"`
	Compliance  int            `yaml:"compliance" json:"compliance"`
	Status      matcher.Status `yaml:"status" json:"status"`
	ColorCount  int            `yaml:"color_count" json:"color_count"`
	Passed      int            `yaml:"passed" json:"passed"`
	CreatedAt   time.Time      `yaml:"created_at" json:"created_at"`
}

// AddRecord appends rec to the history, assigning its ID and creation time.
func (s *Store) AddRecord(rec AnalysisRecord) (*AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.newID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.doc.History = append(s.doc.History, rec)
	if err := s.save(); err != nil {
		s.doc.History = s.doc.History[:len(s.doc.History)-1]
		return nil, err
	}

	return &rec, nil
}

// ListHistory returns analysis records newest first. A limit of zero or less
// returns every record.
func (s *Store) ListHistory(limit int) []AnalysisRecord {
	s.mu.RLock()
	records := append([]AnalysisRecord(nil), s.doc.History...)
	s.mu.RUnlock()

	// Records are appended in time order; the reverse keeps ties stable.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// GetRecord returns the analysis record with the given ID.
func (s *Store) GetRecord(id string) (*AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.doc.History {
		if rec.ID == id {
			r := rec
			return &r, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "analysis %s", id)
}
