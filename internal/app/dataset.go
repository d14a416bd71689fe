package app

import (
	"context"
	"log"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"github.com/sebspolo/scrobble-guessr/internal/taskpool"
)

// TopLister fetches one normalized top-list slice.
type TopLister interface {
	TopList(ctx context.Context, user string, kind domain.CategoryKind, period domain.Period, limit int) ([]domain.StatRecord, error)
}

// DatasetBuilder fetches every (subject, period, kind) slice through the
// task pool.
type DatasetBuilder struct {
	source      TopLister
	concurrency int
	limit       int
}

// SliceLimit is how many top records each dataset slice keeps.
const SliceLimit = 10

// NewDatasetBuilder builds a DatasetBuilder; concurrency <= 0 uses the pool default.
func NewDatasetBuilder(source TopLister, concurrency int) *DatasetBuilder {
	return &DatasetBuilder{source: source, concurrency: concurrency, limit: SliceLimit}
}

type slice struct {
	subject string
	period  domain.Period
	kind    domain.CategoryKind
}

// Build fetches the cross product of subjects, periods and kinds. Nil
// periods or kinds mean all of them. Build never fails: a slice whose fetch
// fails is left empty and logged, and no failure touches any other slice.
func (b *DatasetBuilder) Build(ctx context.Context, subjects []string, periods []domain.Period, kinds []domain.CategoryKind) domain.Dataset {
	if len(periods) == 0 {
		periods = domain.AllPeriods
	}
	if len(kinds) == 0 {
		kinds = domain.AllCategories
	}

	cells := make([]slice, 0, len(subjects)*len(periods)*len(kinds))
	for _, subject := range subjects {
		for _, period := range periods {
			for _, kind := range kinds {
				cells = append(cells, slice{subject: subject, period: period, kind: kind})
			}
		}
	}

	jobs := make([]taskpool.Job[[]domain.StatRecord], len(cells))
	for i, cell := range cells {
		jobs[i] = func(ctx context.Context) ([]domain.StatRecord, error) {
			return b.source.TopList(ctx, cell.subject, cell.kind, cell.period, b.limit)
		}
	}
	results := taskpool.Run(ctx, b.concurrency, jobs)

	// Slot i belongs to cells[i]; the map is only written here, after every
	// job has finished.
	ds := domain.NewDataset(subjects, periods, kinds)
	failed := 0
	for i, res := range results {
		cell := cells[i]
		if !res.OK() {
			failed++
			log.Printf("skip failed slice: user=%s period=%s kind=%s: %v", cell.subject, cell.period, cell.kind, res.Err)
			continue
		}
		records := res.Value
		if len(records) > b.limit {
			records = records[:b.limit]
		}
		ds.Set(cell.subject, cell.period, cell.kind, records)
	}
	log.Printf("fetched %d slices for %d users (%d failed)", len(cells)-failed, len(subjects), failed)

	return ds
}
