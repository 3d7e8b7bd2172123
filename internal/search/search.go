// Package search contains the train-data collaborators the dialogue queries.
package search

import (
	"context"
	"errors"

	"github.com/m3rciful/trainbot/internal/trip"
)

const (
	// BackendHTTP queries a JSON train-data service.
	BackendHTTP = "http"
	// BackendPostgres queries the local timetable tables.
	BackendPostgres = "postgres"
)

// ErrUnavailable reports that the data source could not answer.
var ErrUnavailable = errors.New("search: train data unavailable")

// Searcher looks up trains for a query. An empty slice with a nil error
// means the source answered with no trains.
type Searcher interface {
	Search(ctx context.Context, q trip.BookingQuery) ([]trip.TrainRecord, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, q trip.BookingQuery) ([]trip.TrainRecord, error)

// Search executes the underlying function.
func (f SearcherFunc) Search(ctx context.Context, q trip.BookingQuery) ([]trip.TrainRecord, error) {
	return f(ctx, q)
}
