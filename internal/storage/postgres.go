package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"locdrift/internal/domain"
	"locdrift/internal/report"
)

// RunStore persists run history: one row per run plus one row per reported
// artifact entry, so drift can be tracked across builds.
type RunStore struct {
	db *pgxpool.Pool
}

func NewRunStore(connStr string) (*RunStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &RunStore{db: db}, nil
}

func (s *RunStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *RunStore) Close() {
	s.db.Close()
}

// SaveRun writes the rendered report within a single transaction.
func (s *RunStore) SaveRun(ctx context.Context, mode string, rep *report.Report) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO runs (mode, started_at, pairs_planned, pairs_clean, pairs_with_findings,
		                   pairs_failed, pairs_missing_target, issues)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		mode, time.Now(),
		rep.Summary.Planned, rep.Summary.Clean, rep.Summary.WithFindings,
		rep.Summary.Failed, rep.Summary.MissingTargets, rep.Summary.Issues,
	).Scan(&runID)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, g := range rep.Groups {
		for _, block := range g.Locales {
			for _, a := range block.Artifacts {
				if a.Status == domain.StatusFindings {
					for _, f := range a.Findings {
						batch.Queue(
							`INSERT INTO findings (run_id, context_key, locale, artifact, status, location, issue, remediation)
							 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
							runID, g.Key, block.Locale, a.Artifact, string(a.Status),
							f.Location, f.Issue, f.Remediation)
					}
					continue
				}
				batch.Queue(
					`INSERT INTO findings (run_id, context_key, locale, artifact, status, location, issue, remediation)
					 VALUES ($1, $2, $3, $4, $5, '', $6, '')`,
					runID, g.Key, block.Locale, a.Artifact, string(a.Status), a.FailReason)
			}
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
