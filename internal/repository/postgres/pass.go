package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/repository"
)

type passRepository struct {
	db *pgxpool.Pool
}

func NewPassRepository(db *pgxpool.Pool) repository.PassRepository {
	return &passRepository{db: db}
}

func (r *passRepository) Create(ctx context.Context, pass *domain.Pass) error {
	query := `
		INSERT INTO passes (id, user_id, full_name, id_number, reason, destination,
		                    start_time, end_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	pass.ID = uuid.New()
	pass.CreatedAt = time.Now()

	_, err := r.db.Exec(ctx, query,
		pass.ID,
		pass.UserID,
		pass.FullName,
		pass.IDNumber,
		pass.Reason,
		pass.Destination,
		pass.StartTime,
		pass.EndTime,
		pass.Status,
		pass.CreatedAt,
	)

	return err
}

func (r *passRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pass, error) {
	query := `
		SELECT id, user_id, full_name, id_number, reason, destination,
		       start_time, end_time, status, created_at, approved_at
		FROM passes
		WHERE id = $1
	`

	pass := &domain.Pass{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&pass.ID,
		&pass.UserID,
		&pass.FullName,
		&pass.IDNumber,
		&pass.Reason,
		&pass.Destination,
		&pass.StartTime,
		&pass.EndTime,
		&pass.Status,
		&pass.CreatedAt,
		&pass.ApprovedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPassNotFound
		}
		return nil, err
	}

	return pass, nil
}

// List filters on the EFFECTIVE status: an approved pass whose window
// has elapsed at filter.Now matches "expired", never "approved". The
// stored status column is not rewritten by reads.
func (r *passRepository) List(ctx context.Context, filter repository.PassFilter) ([]*domain.Pass, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPasses(rows)
}

func buildListQuery(filter repository.PassFilter) (string, []interface{}) {
	query := `
		SELECT id, user_id, full_name, id_number, reason, destination,
		       start_time, end_time, status, created_at, approved_at
		FROM passes
		WHERE 1=1
	`

	args := []interface{}{}
	argn := 0

	next := func(v interface{}) string {
		args = append(args, v)
		argn++
		return fmt.Sprintf("$%d", argn)
	}

	if filter.UserID != nil {
		query += " AND user_id = " + next(*filter.UserID)
	}

	if filter.Status != nil {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		nowArg := next(now)
		query += fmt.Sprintf(`
		  AND (CASE WHEN status = 'approved' AND end_time < %s THEN 'expired' ELSE status END) = %s`,
			nowArg, next(string(*filter.Status)))
	}

	if filter.Search != "" {
		like := next("%" + filter.Search + "%")
		query += fmt.Sprintf(" AND (full_name ILIKE %s OR id_number ILIKE %s OR id::text ILIKE %s)", like, like, like)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT " + next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + next(filter.Offset)
	}

	return query, args
}

func (r *passRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PassStatus, approvedAt *time.Time) error {
	query := `
		UPDATE passes
		SET status = $2, approved_at = COALESCE($3, approved_at)
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status, approvedAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrPassNotFound
	}

	return nil
}

func (r *passRepository) CountByStatus(ctx context.Context, now time.Time) (*domain.PassStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'approved' AND end_time >= $1) AS approved,
			COUNT(*) FILTER (WHERE status = 'denied') AS denied,
			COUNT(*) FILTER (WHERE status = 'approved' AND end_time < $1) AS expired
		FROM passes
	`

	stats := &domain.PassStats{}
	err := r.db.QueryRow(ctx, query, now).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Approved,
		&stats.Denied,
		&stats.Expired,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *passRepository) scanPasses(rows pgx.Rows) ([]*domain.Pass, error) {
	var passes []*domain.Pass
	for rows.Next() {
		pass := &domain.Pass{}
		err := rows.Scan(
			&pass.ID,
			&pass.UserID,
			&pass.FullName,
			&pass.IDNumber,
			&pass.Reason,
			&pass.Destination,
			&pass.StartTime,
			&pass.EndTime,
			&pass.Status,
			&pass.CreatedAt,
			&pass.ApprovedAt,
		)
		if err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}

	return passes, rows.Err()
}
