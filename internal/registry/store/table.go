package store

import (
	"context"

	"idcheck/internal/registry/models"
	id "idcheck/pkg/domain"
)

// Loader builds a Table from a bulk source. Implementations run once at
// startup; the returned Table is never written to again.
type Loader interface {
	Load(ctx context.Context) (*Table, error)
}

// Reader is the read side of the roll that matchers depend on.
type Reader interface {
	FindByID(citizenID id.CitizenID) (models.Record, bool)
	Len() int
}

// Table is an immutable, ID-indexed snapshot of the electoral roll.
// It is safe for concurrent readers because nothing mutates it after
// construction.
type Table struct {
	records []models.Record
	byID    map[id.CitizenID]int
	stats   models.LoadStats
}

// NewTable trims every name field and indexes records by ID. When an ID
// appears more than once the first row wins and the rest are counted as
// duplicates.
func NewTable(records []models.Record) *Table {
	t := &Table{
		records: make([]models.Record, 0, len(records)),
		byID:    make(map[id.CitizenID]int, len(records)),
	}
	for _, r := range records {
		r = r.Trimmed()
		t.records = append(t.records, r)
		if _, exists := t.byID[r.ID]; exists {
			t.stats.Duplicates++
			continue
		}
		t.byID[r.ID] = len(t.records) - 1
	}
	t.stats.Records = len(t.records)
	return t
}

// FindByID returns the record for an exact ID.
func (t *Table) FindByID(citizenID id.CitizenID) (models.Record, bool) {
	i, ok := t.byID[citizenID]
	if !ok {
		return models.Record{}, false
	}
	return t.records[i], true
}

// Len is the number of loaded rows, duplicates included.
func (t *Table) Len() int {
	return len(t.records)
}

// Stats describes how the table was loaded.
func (t *Table) Stats() models.LoadStats {
	return t.stats
}

// All returns a copy of the rows in load order.
func (t *Table) All() []models.Record {
	return append([]models.Record(nil), t.records...)
}
