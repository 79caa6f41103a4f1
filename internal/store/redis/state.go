package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

// DefaultStateTTL expires the state of a route nobody checked for a month.
const DefaultStateTTL = 30 * 24 * time.Hour

type meta struct {
	Version       int       `json:"version"`
	Route         string    `json:"route"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
}

// StateStore keeps the state of one route in a hash: a meta field plus one
// field per checked date.
type StateStore struct {
	client *redis.Client
	route  string
	ttl    time.Duration
	logger logger.Logger
}

// NewStateStore creates a store for route. A zero ttl uses DefaultStateTTL.
func NewStateStore(client *redis.Client, route string, ttl time.Duration, log logger.Logger) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{client: client, route: route, ttl: ttl, logger: log}
}

func (s *StateStore) Load(ctx context.Context) (domain.State, error) {
	fields, err := s.client.HGetAll(ctx, StateKey(s.route)).Result()
	if err != nil {
		return domain.State{}, fmt.Errorf("%w: read state: %v", domain.ErrStateIO, err)
	}
	if len(fields) == 0 {
		s.logger.Info("no state in redis, starting fresh", logger.String("route", s.route))
		return domain.NewState(s.route), nil
	}

	var m meta
	if raw, ok := fields[FieldMeta]; ok {
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return domain.State{}, fmt.Errorf("%w: decode state meta: %v", domain.ErrStateIO, err)
		}
	}
	if m.Version != domain.StateVersion {
		s.logger.Warn("ignoring persisted state",
			logger.String("route", s.route),
			logger.Int("version", m.Version))
		return domain.NewState(s.route), nil
	}

	state := domain.NewState(s.route)
	state.LastCheckedAt = m.LastCheckedAt
	for field, raw := range fields {
		if field == FieldMeta {
			continue
		}
		date, err := ExtractDate(field)
		if err != nil {
			s.logger.Warn("skipping unknown state field", logger.String("field", field))
			continue
		}
		var snap domain.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return domain.State{}, fmt.Errorf("%w: decode snapshot %s: %v", domain.ErrStateIO, date, err)
		}
		state.Snapshots[date] = snap
	}

	return state, nil
}

// Save replaces the whole hash inside one MULTI/EXEC.
func (s *StateStore) Save(ctx context.Context, state domain.State) error {
	values := make(map[string]any, len(state.Snapshots)+1)

	m, err := json.Marshal(meta{Version: domain.StateVersion, Route: s.route, LastCheckedAt: state.LastCheckedAt})
	if err != nil {
		return fmt.Errorf("%w: encode state meta: %v", domain.ErrStateIO, err)
	}
	values[FieldMeta] = m

	for date, snap := range state.Snapshots {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("%w: encode snapshot %s: %v", domain.ErrStateIO, date, err)
		}
		values[DateField(date)] = data
	}

	key := StateKey(s.route)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: write state: %v", domain.ErrStateIO, err)
	}
	return nil
}
