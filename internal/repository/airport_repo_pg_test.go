package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/flightbot/internal/domain"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	called := m.Called(ctx, sql, args)
	return called.Get(0).(pgx.Row)
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return pgconn.NewCommandTag("INSERT 0 1"), called.Error(0)
}

type fakeRow struct {
	values []string
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*d.(*string) = r.values[i]
	}
	return nil
}

func TestNewAirportRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewAirportRepository(pool)
	assert.NotNil(t, repo)
}

func TestGetByIATA(t *testing.T) {
	db := &MockDB{}
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return sql == `SELECT iata, icao, name, city, country FROM airports WHERE iata=$1`
	}), []any{"HEL"}).Return(fakeRow{values: []string{"HEL", "EFHK", "Helsinki-Vantaa", "Helsinki", "FI"}}).Once()

	airport, err := NewAirportRepository(db).GetByIATA(context.Background(), "hel")

	require.NoError(t, err)
	assert.Equal(t, &domain.Airport{IATA: "HEL", ICAO: "EFHK", Name: "Helsinki-Vantaa", City: "Helsinki", Country: "FI"}, airport)
	db.AssertExpectations(t)
}

func TestGetByICAO_NotFound(t *testing.T) {
	db := &MockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, []any{"ZZZZ"}).Return(fakeRow{err: pgx.ErrNoRows}).Once()

	airport, err := NewAirportRepository(db).GetByICAO(context.Background(), "ZZZZ")

	assert.Nil(t, airport)
	assert.ErrorIs(t, err, domain.ErrAirportNotFound)
}

func TestGetByIATA_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection reset")
	db := &MockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(fakeRow{err: dbErr}).Once()

	_, err := NewAirportRepository(db).GetByIATA(context.Background(), "HEL")

	assert.Equal(t, dbErr, err)
}

func TestUpsert(t *testing.T) {
	db := &MockDB{}
	db.On("Exec", mock.Anything, mock.Anything, []any{"ARN", "ESSA", "Arlanda", "Stockholm", "SE"}).Return(nil).Once()

	err := NewAirportRepository(db).Upsert(context.Background(), domain.Airport{IATA: "arn", ICAO: "essa", Name: "Arlanda", City: "Stockholm", Country: "SE"})

	assert.NoError(t, err)
	db.AssertExpectations(t)
}

func TestEnsureSchema(t *testing.T) {
	db := &MockDB{}
	db.On("Exec", mock.Anything, schema, []any(nil)).Return(errors.New("permission denied")).Once()

	err := EnsureSchema(context.Background(), db)

	assert.EqualError(t, err, "create airports table: permission denied")
}
