package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
)

// CachedResolution is a persisted track-to-source mapping.
type CachedResolution struct {
	ID        string
	Service   string
	TrackID   string
	Candidate models.ResolutionCandidate
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolutionRepository persists resolved download sources keyed by
// (service, track_id).
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Create inserts a new resolution with a generated ID. Fails with a UNIQUE
// constraint error when the (service, track_id) pair already has a row.
func (r *ResolutionRepository) Create(res *CachedResolution) error {
	if res.Service == "" || res.TrackID == "" {
		return fmt.Errorf("%w: resolution requires service and track_id", shared.ErrInvalidInput)
	}

	now := time.Now()
	res.ID = shared.GenerateID()
	res.CreatedAt = now
	res.UpdatedAt = now

	query := `
		INSERT INTO resolutions (
			id, service, track_id, source_id, url, title, channel,
			duration_sec, view_count, score, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var channel any = res.Candidate.Channel
	if channel == "" {
		channel = nil
	}

	_, err := r.db.Exec(query,
		res.ID,
		res.Service,
		res.TrackID,
		res.Candidate.SourceID,
		res.Candidate.URL,
		res.Candidate.Title,
		channel,
		res.Candidate.DurationSec,
		res.Candidate.ViewCount,
		res.Candidate.Score,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// Get retrieves the cached resolution for a (service, track_id) pair.
// Returns (nil, nil) on a cache miss.
func (r *ResolutionRepository) Get(service, trackID string) (*CachedResolution, error) {
	query := `
		SELECT
			id, service, track_id, source_id, url, title, channel,
			duration_sec, view_count, score, created_at, updated_at
		FROM resolutions
		WHERE service = ? AND track_id = ?
	`

	var (
		res     CachedResolution
		channel sql.NullString
	)

	err := r.db.QueryRow(query, service, trackID).Scan(
		&res.ID, &res.Service, &res.TrackID,
		&res.Candidate.SourceID, &res.Candidate.URL, &res.Candidate.Title,
		&channel, &res.Candidate.DurationSec, &res.Candidate.ViewCount,
		&res.Candidate.Score, &res.CreatedAt, &res.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}

	if channel.Valid {
		res.Candidate.Channel = channel.String
	}

	return &res, nil
}

// Update replaces the candidate for an existing (service, track_id) row.
func (r *ResolutionRepository) Update(res *CachedResolution) error {
	now := time.Now()
	res.UpdatedAt = now

	query := `
		UPDATE resolutions
		SET source_id = ?, url = ?, title = ?, channel = ?,
			duration_sec = ?, view_count = ?, score = ?, updated_at = ?
		WHERE service = ? AND track_id = ?
	`

	var channel any = res.Candidate.Channel
	if channel == "" {
		channel = nil
	}

	result, err := r.db.Exec(query,
		res.Candidate.SourceID,
		res.Candidate.URL,
		res.Candidate.Title,
		channel,
		res.Candidate.DurationSec,
		res.Candidate.ViewCount,
		res.Candidate.Score,
		now,
		res.Service,
		res.TrackID,
	)
	if err != nil {
		return fmt.Errorf("failed to update resolution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resolution not found: %s/%s", res.Service, res.TrackID)
	}

	return nil
}

// Delete removes the cached resolution for a (service, track_id) pair.
func (r *ResolutionRepository) Delete(service, trackID string) error {
	result, err := r.db.Exec("DELETE FROM resolutions WHERE service = ? AND track_id = ?", service, trackID)
	if err != nil {
		return fmt.Errorf("failed to delete resolution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resolution not found: %s/%s", service, trackID)
	}

	return nil
}

// List retrieves all cached resolutions for a service, newest first.
func (r *ResolutionRepository) List(service string) ([]*CachedResolution, error) {
	query := `
		SELECT
			id, service, track_id, source_id, url, title, channel,
			duration_sec, view_count, score, created_at, updated_at
		FROM resolutions
		WHERE service = ?
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(query, service)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var out []*CachedResolution
	for rows.Next() {
		var (
			res     CachedResolution
			channel sql.NullString
		)

		err := rows.Scan(
			&res.ID, &res.Service, &res.TrackID,
			&res.Candidate.SourceID, &res.Candidate.URL, &res.Candidate.Title,
			&channel, &res.Candidate.DurationSec, &res.Candidate.ViewCount,
			&res.Candidate.Score, &res.CreatedAt, &res.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}

		if channel.Valid {
			res.Candidate.Channel = channel.String
		}

		out = append(out, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}
