package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/trainbot/internal/trip"
)

const maxTimetableRows = 100

// searchTimetableQuery matches stations case-insensitively and filters by
// the runs_on weekday bitmask (bit 0 = Sunday).
const searchTimetableQuery = `
	SELECT name, number, departure, arrival, duration, availability
	FROM train_services
	WHERE lower(origin) = lower($1)
	  AND lower(destination) = lower($2)
	  AND (runs_on & $3) <> 0
	ORDER BY departure, number
	LIMIT $4
`

// PostgresSearcher answers queries from the train_services timetable.
type PostgresSearcher struct {
	db *sqlx.DB
}

// NewPostgresSearcher wraps an open connection pool.
func NewPostgresSearcher(db *sqlx.DB) *PostgresSearcher {
	return &PostgresSearcher{db: db}
}

// Search returns the services that run on the query's weekday.
func (s *PostgresSearcher) Search(ctx context.Context, q trip.BookingQuery) ([]trip.TrainRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("%w: no database", ErrUnavailable)
	}
	rows := []trip.TrainRecord{}
	err := s.db.SelectContext(ctx, &rows, searchTimetableQuery,
		strings.TrimSpace(q.Origin),
		strings.TrimSpace(q.Destination),
		weekdayMask(q.Date.Weekday()),
		maxTimetableRows,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query timetable: %w", ErrUnavailable, err)
	}
	return rows, nil
}

func weekdayMask(d time.Weekday) int {
	return 1 << uint(d)
}
