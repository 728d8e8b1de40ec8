package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
)

// DownloadRepository stores download attempts.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts rec, assigning an ID and creation time when missing.
func (r *DownloadRepository) Create(rec *models.DownloadRecord) error {
	if rec.VideoID == "" {
		return fmt.Errorf("validation failed: video id is required")
	}

	sequence, err := NextSequence(r.db, "downloads")
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
		INSERT INTO downloads (id, sequence, video_id, title, path, bytes, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, rec.ID, sequence, rec.VideoID, rec.Title, rec.Path, rec.Bytes, rec.Error, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}
	return nil
}

// RecordDownload implements tasks.DownloadRecorder.
func (r *DownloadRepository) RecordDownload(rec models.DownloadRecord) error {
	return r.Create(&rec)
}

// Get retrieves a download by ID
func (r *DownloadRepository) Get(id string) (*models.DownloadRecord, error) {
	query := `
		SELECT id, video_id, title, path, bytes, error, created_at
		FROM downloads
		WHERE id = ?
	`
	return r.scan(r.db.QueryRow(query, id))
}

// List returns the most recent downloads first.
//
// opts.Filter restricts the listing to one video ID.
func (r *DownloadRepository) List(opts ListOpts) ([]*models.DownloadRecord, error) {
	query := `
		SELECT id, video_id, title, path, bytes, error, created_at
		FROM downloads
		WHERE 1 = 1
	`
	args := []any{}

	if opts.Filter != "" {
		query += " AND video_id = ?"
		args = append(args, opts.Filter)
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
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
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

// DownloadStats totals the download history.
type DownloadStats struct {
	Succeeded int
	Failed    int
	Bytes     int64
}

// Stats aggregates every recorded download.
func (r *DownloadRepository) Stats() (DownloadStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN error = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(bytes), 0)
		FROM downloads
	`

	var stats DownloadStats
	if err := r.db.QueryRow(query).Scan(&stats.Succeeded, &stats.Failed, &stats.Bytes); err != nil {
		return DownloadStats{}, fmt.Errorf("failed to aggregate downloads: %w", err)
	}
	return stats, nil
}

// Clear removes every download record and returns how many rows were deleted.
func (r *DownloadRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM downloads")
	if err != nil {
		return 0, fmt.Errorf("failed to clear downloads: %w", err)
	}
	return result.RowsAffected()
}

func (r *DownloadRepository) scan(row scanner) (*models.DownloadRecord, error) {
	var rec models.DownloadRecord

	err := row.Scan(&rec.ID, &rec.VideoID, &rec.Title, &rec.Path, &rec.Bytes, &rec.Error, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan download: %w", err)
	}
	return &rec, nil
}
