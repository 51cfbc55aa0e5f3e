package geo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"transferdesk/pkg/domain"
	"transferdesk/pkg/platform/sentinel"
	txcontext "transferdesk/pkg/platform/tx"
)

// PostgresRegistry reads the provinces and districts tables.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PostgresRegistry) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return r.db
}

func (r *PostgresRegistry) DistrictByCode(ctx context.Context, code string) (District, error) {
	return r.scanDistrict(r.db.QueryRowContext(ctx,
		`SELECT id, code, province_id, name FROM districts WHERE code = $1`, code))
}

func (r *PostgresRegistry) DistrictByID(ctx context.Context, id domain.DistrictID) (District, error) {
	return r.scanDistrict(r.db.QueryRowContext(ctx,
		`SELECT id, code, province_id, name FROM districts WHERE id = $1`, uuid.UUID(id)))
}

func (r *PostgresRegistry) ProvinceByCode(ctx context.Context, code string) (Province, error) {
	return r.scanProvince(r.db.QueryRowContext(ctx,
		`SELECT id, code, name FROM provinces WHERE code = $1`, code))
}

func (r *PostgresRegistry) ProvinceByID(ctx context.Context, id domain.ProvinceID) (Province, error) {
	return r.scanProvince(r.db.QueryRowContext(ctx,
		`SELECT id, code, name FROM provinces WHERE id = $1`, uuid.UUID(id)))
}

func (r *PostgresRegistry) DistrictCodesInProvince(ctx context.Context, id domain.ProvinceID) ([]string, error) {
	if _, err := r.ProvinceByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT code FROM districts WHERE province_id = $1 ORDER BY code`, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("query district codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan district code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate district codes: %w", err)
	}
	return codes, nil
}

// Upsert writes provinces and districts, replacing names on conflict. Used by
// the seed-geo command inside one transaction.
func (r *PostgresRegistry) Upsert(ctx context.Context, provinces []Province, districts []District) error {
	exec := r.execer(ctx)
	for _, p := range provinces {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO provinces (id, code, name) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name
		`, uuid.UUID(p.ID), p.Code, p.Name)
		if err != nil {
			return fmt.Errorf("upsert province %s: %w", p.Code, err)
		}
	}
	for _, d := range districts {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO districts (id, code, province_id, name) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code,
				province_id = EXCLUDED.province_id,
				name = EXCLUDED.name
		`, uuid.UUID(d.ID), d.Code, uuid.UUID(d.ProvinceID), d.Name)
		if err != nil {
			return fmt.Errorf("upsert district %s: %w", d.Code, err)
		}
	}
	return nil
}

func (r *PostgresRegistry) scanDistrict(row *sql.Row) (District, error) {
	var (
		d          District
		id, provID uuid.UUID
	)
	if err := row.Scan(&id, &d.Code, &provID, &d.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return District{}, sentinel.ErrNotFound
		}
		return District{}, fmt.Errorf("scan district: %w", err)
	}
	d.ID = domain.DistrictID(id)
	d.ProvinceID = domain.ProvinceID(provID)
	return d, nil
}

func (r *PostgresRegistry) scanProvince(row *sql.Row) (Province, error) {
	var (
		p  Province
		id uuid.UUID
	)
	if err := row.Scan(&id, &p.Code, &p.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Province{}, sentinel.ErrNotFound
		}
		return Province{}, fmt.Errorf("scan province: %w", err)
	}
	p.ID = domain.ProvinceID(id)
	return p, nil
}
