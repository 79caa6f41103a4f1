package tcdd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/auth"
	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/utils"
	"github.com/MrSnakeDoc/seatwatch/internal/version"
)

const (
	// DefaultEndpoint is the public train-availability search.
	DefaultEndpoint = "https://web-api-prod-ytp.tcddtasimacilik.gov.tr/tms/train/train-availability?environment=dev&userId=1"
	// DefaultUnitID is the sales unit sent in the unit-id header.
	DefaultUnitID = "3895"

	requestDateLayout = "02-01-2006"
	requestClock      = "21:00:00"
	maxBodyBytes      = 16 << 20
)

// ClientOptions configures the availability client.
type ClientOptions struct {
	Endpoint   string
	UnitID     string
	Route      domain.Route
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client queries seat availability for one route.
type Client struct {
	endpoint string
	unitID   string
	route    domain.Route
	tokens   auth.TokenProvider
	http     *http.Client
	logger   logger.Logger
}

func NewClient(opts ClientOptions, tokens auth.TokenProvider, log logger.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	unitID := opts.UnitID
	if unitID == "" {
		unitID = DefaultUnitID
	}

	return &Client{
		endpoint: endpoint,
		unitID:   unitID,
		route:    opts.Route,
		tokens:   tokens,
		http:     hc,
		logger:   log,
	}
}

// NewSearchRequest builds the body for one travel date.
func NewSearchRequest(route domain.Route, date civil.Date) SearchRequest {
	return SearchRequest{
		SearchRoutes: []SearchRoute{{
			DepartureStationID:   route.DepartureID,
			DepartureStationName: route.DepartureName,
			ArrivalStationID:     route.ArrivalID,
			ArrivalStationName:   route.ArrivalName,
			DepartureDate:        FormatRequestDate(date),
		}},
		PassengerTypeCounts: []PassengerTypeCount{{ID: 0, Count: 1}},
		SearchReservation:   false,
		BlTrainTypes:        []string{"TURISTIK_TREN"},
	}
}

// FormatRequestDate renders date as "DD-MM-YYYY 21:00:00".
func FormatRequestDate(date civil.Date) string {
	return date.In(time.UTC).Format(requestDateLayout) + " " + requestClock
}

// Fetch returns the raw availability for date. Every failure is a *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, date civil.Date) (*AvailabilityResponse, error) {
	fail := func(err error) error { return &domain.FetchError{Date: date, Err: err} }

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fail(err)
	}

	body, err := json.Marshal(NewSearchRequest(c.route, date))
	if err != nil {
		return nil, fail(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fail(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "tr")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("unit-id", c.unitID)
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("post availability: %w", err))
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fail(fmt.Errorf("%w: provider answered %s", domain.ErrAuth, resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(fmt.Errorf("provider answered %s", resp.Status))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fail(fmt.Errorf("read body: %w", err))
	}

	var out AvailabilityResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fail(fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err))
	}

	c.logger.Debug("fetched availability",
		logger.Stringer("date", date),
		logger.Int("bytes", len(raw)),
		logger.Duration("elapsed", time.Since(start)))

	return &out, nil
}
