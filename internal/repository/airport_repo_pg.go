package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Domenick1991/flightbot/internal/domain"
)

type AirportRepository interface {
	GetByIATA(ctx context.Context, code string) (*domain.Airport, error)
	GetByICAO(ctx context.Context, code string) (*domain.Airport, error)
	Upsert(ctx context.Context, airport domain.Airport) error
}

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PGAirportRepository struct {
	db DB
}

func NewAirportRepository(db DB) AirportRepository {
	return &PGAirportRepository{db: db}
}

const schema = `CREATE TABLE IF NOT EXISTS airports (
	iata    CHAR(3) PRIMARY KEY,
	icao    CHAR(4) NOT NULL,
	name    TEXT NOT NULL DEFAULT '',
	city    TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT ''
)`

// EnsureSchema creates the airports table when missing.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create airports table: %w", err)
	}
	return nil
}

func (r *PGAirportRepository) GetByIATA(ctx context.Context, code string) (*domain.Airport, error) {
	return r.get(ctx, `SELECT iata, icao, name, city, country FROM airports WHERE iata=$1`, code)
}

func (r *PGAirportRepository) GetByICAO(ctx context.Context, code string) (*domain.Airport, error) {
	return r.get(ctx, `SELECT iata, icao, name, city, country FROM airports WHERE icao=$1`, code)
}

func (r *PGAirportRepository) get(ctx context.Context, query, code string) (*domain.Airport, error) {
	row := r.db.QueryRow(ctx, query, strings.ToUpper(code))
	var a domain.Airport
	if err := row.Scan(&a.IATA, &a.ICAO, &a.Name, &a.City, &a.Country); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAirportNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGAirportRepository) Upsert(ctx context.Context, a domain.Airport) error {
	_, err := r.db.Exec(ctx, `INSERT INTO airports (iata, icao, name, city, country) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (iata) DO UPDATE SET icao=EXCLUDED.icao, name=EXCLUDED.name, city=EXCLUDED.city, country=EXCLUDED.country`,
		strings.ToUpper(a.IATA), strings.ToUpper(a.ICAO), a.Name, a.City, a.Country)
	return err
}

var _ AirportRepository = (*PGAirportRepository)(nil)
