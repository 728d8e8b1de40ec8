package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
)

// QueryRepository stores finished query chains.
type QueryRepository struct {
	db *sql.DB
}

// NewQueryRepository creates a new QueryRepository with the given database connection
func NewQueryRepository(db *sql.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// Create inserts rec, assigning an ID and creation time when missing.
func (r *QueryRepository) Create(rec *models.QueryRecord) error {
	if rec.Mode == models.ModeNone {
		return fmt.Errorf("validation failed: query mode is required")
	}

	sequence, err := NextSequence(r.db, "queries")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO queries (id, sequence, mode, input, result_count, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, rec.ID, sequence, rec.Mode.String(), rec.Input, rec.ResultCount, rec.Error, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert query: %w", err)
	}
	return nil
}

// RecordQuery implements tasks.QueryRecorder.
func (r *QueryRepository) RecordQuery(rec models.QueryRecord) error {
	return r.Create(&rec)
}

// Get retrieves a query by ID
func (r *QueryRepository) Get(id string) (*models.QueryRecord, error) {
	query := `
		SELECT id, mode, input, result_count, error, created_at
		FROM queries
		WHERE id = ?
	`
	return r.scan(r.db.QueryRow(query, id))
}

// List returns the most recent queries first.
//
// opts.Filter restricts the listing to one mode name.
func (r *QueryRepository) List(opts ListOpts) ([]*models.QueryRecord, error) {
	query := `
		SELECT id, mode, input, result_count, error, created_at
		FROM queries
		WHERE 1 = 1
	`
	args := []any{}

	if opts.Filter != "" {
		mode, err := models.ParseQueryMode(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		query += " AND mode = ?"
		args = append(args, mode.String())
	}
	if opts.Failed {
		query += " AND error != ''"
	}

	query += " ORDER BY sequence DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []*models.QueryRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Clear removes every query and returns how many rows were deleted.
func (r *QueryRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM queries")
	if err != nil {
		return 0, fmt.Errorf("failed to clear queries: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *QueryRepository) scan(row scanner) (*models.QueryRecord, error) {
	var (
		rec  models.QueryRecord
		mode string
	)

	err := row.Scan(&rec.ID, &mode, &rec.Input, &rec.ResultCount, &rec.Error, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan query: %w", err)
	}

	rec.Mode, err = models.ParseQueryMode(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to scan query: %w", err)
	}
	return &rec, nil
}
