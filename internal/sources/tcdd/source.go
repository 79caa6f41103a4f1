package tcdd

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

// Source fetches and normalizes one date in a single call.
type Source struct {
	client *Client
	mapper *Mapper
}

func NewSource(client *Client, mapper *Mapper) *Source {
	return &Source{client: client, mapper: mapper}
}

// Snapshot returns the normalized availability of date. A response that cannot
// be normalized is reported as a *domain.FetchError for that date.
func (s *Source) Snapshot(ctx context.Context, date civil.Date, now time.Time) (domain.Snapshot, error) {
	resp, err := s.client.Fetch(ctx, date)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap, err := s.mapper.Normalize(resp, date, now)
	if err != nil {
		return domain.Snapshot{}, &domain.FetchError{Date: date, Err: err}
	}
	return snap, nil
}
