package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/repository"
)

type verificationLogRepository struct {
	db *pgxpool.Pool
}

func NewVerificationLogRepository(db *pgxpool.Pool) repository.VerificationLogRepository {
	return &verificationLogRepository{db: db}
}

// Create appends one entry. Entries are never updated or deleted; there
// is deliberately no write path besides this one.
func (r *verificationLogRepository) Create(ctx context.Context, entry *domain.VerificationLog) error {
	query := `
		INSERT INTO verification_logs (id, pass_id, holder_name, scan_time, location,
		                               scanned_by, device_info, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	entry.ID = uuid.New()

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.PassID,
		entry.HolderName,
		entry.ScanTime,
		entry.Location,
		entry.ScannedBy,
		entry.DeviceInfo,
		entry.Result,
	)

	return err
}

func (r *verificationLogRepository) List(ctx context.Context, limit, offset int) ([]*domain.VerificationLog, error) {
	query := `
		SELECT id, pass_id, holder_name, scan_time, location, scanned_by, device_info, result
		FROM verification_logs
		ORDER BY scan_time DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

func (r *verificationLogRepository) GetByPassID(ctx context.Context, passID string, limit, offset int) ([]*domain.VerificationLog, error) {
	query := `
		SELECT id, pass_id, holder_name, scan_time, location, scanned_by, device_info, result
		FROM verification_logs
		WHERE pass_id = $1
		ORDER BY scan_time DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, passID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

func (r *verificationLogRepository) Stats(ctx context.Context) (*domain.VerificationStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE result = 'valid') AS valid,
			COUNT(*) FILTER (WHERE result = 'expired') AS expired,
			COUNT(*) FILTER (WHERE result = 'invalid') AS invalid
		FROM verification_logs
	`

	stats := &domain.VerificationStats{}
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Valid,
		&stats.Expired,
		&stats.Invalid,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *verificationLogRepository) scanEntries(rows pgx.Rows) ([]*domain.VerificationLog, error) {
	var entries []*domain.VerificationLog
	for rows.Next() {
		entry := &domain.VerificationLog{}
		err := rows.Scan(
			&entry.ID,
			&entry.PassID,
			&entry.HolderName,
			&entry.ScanTime,
			&entry.Location,
			&entry.ScannedBy,
			&entry.DeviceInfo,
			&entry.Result,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
