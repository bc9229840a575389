package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"provider-scraper/models"
	"provider-scraper/scraper"
)

// Run status values
const (
	RunInProgress = "in_progress"
	RunDone       = "done"
	RunFailed     = "failed"
)

// Run represents one stored scrape run
type Run struct {
	ID             int
	ListingURL     string
	Status         string
	PagesVisited   int
	PagesSkipped   int
	EntriesVisited int
	EntriesSkipped int
	ProfilesCount  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateRun inserts a new in-progress run
func (db *DB) CreateRun(ctx context.Context, listingURL string) (*Run, error) {
	var run Run
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO scrape_runs (listing_url, status)
		VALUES ($1, $2)
		RETURNING id, listing_url, status, created_at, updated_at
	`, listingURL, RunInProgress).Scan(&run.ID, &run.ListingURL, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// FinishRun records the traversal summary and final status of a run
func (db *DB) FinishRun(ctx context.Context, runID int, summary scraper.Summary, profilesCount int, status string) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE scrape_runs
		SET status = $2, pages_visited = $3, pages_skipped = $4, entries_visited = $5,
			entries_skipped = $6, profiles_count = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, runID, status, summary.PagesVisited, summary.PagesSkipped, summary.EntriesVisited, summary.EntriesSkipped, profilesCount)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// SaveProfiles stores every profile of a run in visitation order within one transaction
func (db *DB) SaveProfiles(ctx context.Context, runID int, result models.AggregateResult) error {
	if len(result) == 0 {
		return nil
	}

	// Use a transaction for bulk insert
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profiles (run_id, visit_order, profile_link, name, profession, total_ratings,
			conditions_treated, procedures_performed, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Insert in visitation order; the index becomes visit_order
	for i, profile := range result {
		args, err := profileArgs(runID, i, profile)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert profile (runID=%d, link=%s): %w", runID, profile.ProfileURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRunProfiles loads the profiles of a run in visitation order
func (db *DB) GetRunProfiles(ctx context.Context, runID int) (models.AggregateResult, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT document FROM profiles WHERE run_id = $1 ORDER BY visit_order
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	// Decode each stored document back into a record
	result := models.AggregateResult{}
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profile, err := decodeProfile(document)
		if err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return result, nil
}

// profileArgs builds the insert arguments for one profile row
func profileArgs(runID, position int, profile models.ProfileRecord) ([]interface{}, error) {
	document, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile %s: %w", profile.ProfileURL, err)
	}

	return []interface{}{
		runID,
		position,
		profile.ProfileURL,
		nullString(profile.Name),
		nullString(profile.Profession),
		profile.TotalRatings,
		pq.Array(nonNil(profile.ConditionsTreated)),
		pq.Array(nonNil(profile.ProceduresPerformed)),
		document,
	}, nil
}

func decodeProfile(document []byte) (models.ProfileRecord, error) {
	var profile models.ProfileRecord
	if err := json.Unmarshal(document, &profile); err != nil {
		return models.ProfileRecord{}, fmt.Errorf("failed to decode profile document: %w", err)
	}
	return profile, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
