// Package harvest pulls the upstream changelog, reduces it to per-document
// tasks and materializes the local mirror.
package harvest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/scieloorg/oaipmh/internal/domain"
)

// DefaultConcurrency is the harvest worker pool size.
const DefaultConcurrency = 4

// DataConnector is the upstream the synchronizer harvests from.
type DataConnector interface {
	Changes(since string) domain.Changelog
	DocMetadata(ctx context.Context, url string) (*domain.Record, error)
}

// Stats summarizes one harvest cycle.
type Stats struct {
	Fetched int64
	Deleted int64
	Failed  int64
}

// Synchronizer runs harvest cycles: changelog reduction, bounded fan-out
// of metadata fetches, deletions, and the watermark checkpoint.
type Synchronizer struct {
	source      DataConnector
	docs        domain.DocumentStore
	vars        domain.VariableStore
	reader      domain.TasksReader
	concurrency int
}

func NewSynchronizer(source DataConnector, docs domain.DocumentStore, vars domain.VariableStore, concurrency int) *Synchronizer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Synchronizer{
		source:      source,
		docs:        docs,
		vars:        vars,
		concurrency: concurrency,
	}
}

// Sync harvests every record newer than since. An empty since falls back
// to the stored watermark. Per-task failures are logged and skipped; the
// watermark only advances when the cycle runs to completion, so an
// interrupted cycle is re-harvested on the next run (upserts keyed by
// doc_id make the duplicate work safe).
func (s *Synchronizer) Sync(ctx context.Context, since string) (Stats, error) {
	logger := log.WithField("run_id", uuid.NewString())

	var stats Stats
	if since == "" {
		var err error
		since, err = s.vars.Fetch(ctx, domain.LastSyncedTimestamp, "")
		if err != nil {
			return stats, fmt.Errorf("resolve since: %w", err)
		}
	}
	logger.WithField("since", orVeryBeginning(since)).Info("starting to sync records from remote")

	tasks, err := s.reader.Read(ctx, s.source.Changes(since))
	if err != nil {
		return stats, fmt.Errorf("read changelog: %w", err)
	}

	s.getDocs(ctx, logger, tasks.DocsToGet(), &stats)
	s.delDocs(ctx, logger, tasks.DocsToDel(), &stats)

	if err := ctx.Err(); err != nil {
		logger.Warn("harvest interrupted; watermark left untouched")
		return stats, err
	}

	if tasks.Timestamp != "" {
		if err := s.vars.Upsert(ctx, domain.LastSyncedTimestamp, tasks.Timestamp); err != nil {
			return stats, fmt.Errorf("checkpoint watermark: %w", err)
		}
	}

	logger.WithFields(log.Fields{
		"fetched":   stats.Fetched,
		"deleted":   stats.Deleted,
		"failed":    stats.Failed,
		"watermark": tasks.Timestamp,
	}).Info("sync cycle finished")
	return stats, nil
}

// getDocs fans the fetch tasks out over the worker pool. Workers poll the
// context at task entry and drain without starting new work once it is
// cancelled; in-flight HTTP calls finish or hit their own timeouts.
func (s *Synchronizer) getDocs(ctx context.Context, logger *log.Entry, tasks []domain.Task, stats *Stats) {
	var fetched, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rec, err := s.source.DocMetadata(ctx, task.ID)
			if err != nil {
				failed.Add(1)
				logger.WithField("task", task.ID).WithError(err).Error("could not sync record")
				return nil
			}
			if err := s.docs.Upsert(ctx, rec); err != nil {
				failed.Add(1)
				logger.WithField("task", task.ID).WithError(err).Error("could not store record")
				return nil
			}
			fetched.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats.Fetched += fetched.Load()
	stats.Failed += failed.Load()
}

func (s *Synchronizer) delDocs(ctx context.Context, logger *log.Entry, tasks []domain.Task, stats *Stats) {
	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		if err := s.docs.Delete(ctx, docIDOf(task)); err != nil {
			stats.Failed++
			logger.WithField("task", task.ID).WithError(err).Error("could not delete record")
			continue
		}
		stats.Deleted++
	}
}

// docIDOf strips the /documents/ prefix; deletions are keyed the same way
// upserts are.
func docIDOf(task domain.Task) string {
	return strings.TrimPrefix(task.ID, "/documents/")
}

func orVeryBeginning(since string) string {
	if since == "" {
		return "the very beginning"
	}
	return since
}
