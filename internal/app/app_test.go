package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/config"
	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

var trt = time.FixedZone("TRT", 3*60*60)

// providerStub answers every availability search with one coach of the given seats.
func providerStub(t *testing.T, date civil.Date, seats *atomic.Int64) *httptest.Server {
	t.Helper()
	departure := time.Date(date.Year, date.Month, date.Day, 10, 30, 0, 0, trt).UnixMilli()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer static" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"trainLegs":[{"trainAvailabilities":[{"trains":[{"number":"81001","name":"Doğu Ekspresi",`+
			`"segments":[{"departureTime":%d}],`+
			`"cars":[{"name":"3","availabilities":[{"cabinClass":{"code":"Y1","name":"Ekonomi"},"availability":%d}]}]}]}]}]}`,
			departure, seats.Load())
	}))
	t.Cleanup(ts.Close)
	return ts
}

type telegramStub struct {
	mu       sync.Mutex
	messages []string
}

func (s *telegramStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.messages = append(s.messages, body.Text)
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (s *telegramStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func testConfig(t *testing.T, date civil.Date, provider, telegram string) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:     "error",
		PollInterval: time.Minute,
		Route: domain.Route{
			DepartureID:   98,
			DepartureName: "ANKARA GAR",
			ArrivalID:     1325,
			ArrivalName:   "KARS",
		},
		Window:           domain.FullDay,
		Dates:            domain.SingleDate(date),
		CabinClasses:     domain.DefaultCabinClasses,
		Match:            domain.MatchByName,
		Timezone:         "TRT",
		Location:         trt,
		TCDDEndpoint:     provider,
		UnitID:           "3895",
		RequestTimeout:   5 * time.Second,
		AuthToken:        "Bearer static",
		Notifier:         config.NotifierTelegram,
		TelegramBotToken: "123:abc",
		TelegramChatID:   "42",
		TelegramAPIURL:   telegram,
		StateBackend:     config.StateBackendFile,
		StateFile:        filepath.Join(t.TempDir(), "state.json"),
		ShutdownTimeout:  time.Second,
	}
}

func futureDate() civil.Date {
	return civil.DateOf(time.Now().In(trt)).AddDays(3)
}

func runOnce(t *testing.T, cfg *config.Config, opts Options) {
	t.Helper()
	a, err := New(context.Background(), cfg, opts, logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestSingleShotNotifiesOnce(t *testing.T) {
	date := futureDate()
	var seats atomic.Int64
	seats.Store(4)
	provider := providerStub(t, date, &seats)
	tg := &telegramStub{}
	cfg := testConfig(t, date, provider.URL, tg.server(t).URL)

	runOnce(t, cfg, Options{})
	if tg.count() != 1 {
		t.Fatalf("messages after first run = %d, want 1", tg.count())
	}
	if !strings.Contains(tg.messages[0], "Vagon 3") {
		t.Errorf("message = %q, want coach name", tg.messages[0])
	}

	runOnce(t, cfg, Options{})
	if tg.count() != 1 {
		t.Fatalf("messages after unchanged run = %d, want 1", tg.count())
	}

	seats.Store(0)
	runOnce(t, cfg, Options{})
	seats.Store(2)
	runOnce(t, cfg, Options{})
	if tg.count() != 2 {
		t.Fatalf("messages after seats came back = %d, want 2", tg.count())
	}
}

func TestDryRunKeepsStateUntouched(t *testing.T) {
	date := futureDate()
	var seats atomic.Int64
	seats.Store(4)
	provider := providerStub(t, date, &seats)
	tg := &telegramStub{}
	cfg := testConfig(t, date, provider.URL, tg.server(t).URL)

	runOnce(t, cfg, Options{DryRun: true})

	if tg.count() != 0 {
		t.Errorf("dry run sent %d messages", tg.count())
	}
	if _, err := os.Stat(cfg.StateFile); !os.IsNotExist(err) {
		t.Errorf("dry run wrote the state file: %v", err)
	}
}

func TestMissingTelegramFailsStartup(t *testing.T) {
	date := futureDate()
	var seats atomic.Int64
	provider := providerStub(t, date, &seats)
	cfg := testConfig(t, date, provider.URL, "")
	cfg.TelegramBotToken = ""

	if _, err := New(context.Background(), cfg, Options{}, logger.Nop()); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("New() error = %v, want ErrConfiguration", err)
	}
}

func TestLogOnlyNotifierAdvancesState(t *testing.T) {
	date := futureDate()
	var seats atomic.Int64
	seats.Store(4)
	provider := providerStub(t, date, &seats)
	cfg := testConfig(t, date, provider.URL, "")
	cfg.Notifier = config.NotifierLog
	cfg.TelegramBotToken = ""
	cfg.TelegramChatID = ""

	runOnce(t, cfg, Options{})
	if _, err := os.Stat(cfg.StateFile); err != nil {
		t.Errorf("log only run did not save the state: %v", err)
	}
}

func TestSingleShotFetchErrorFails(t *testing.T) {
	date := futureDate()
	var seats atomic.Int64
	seats.Store(4)
	provider := providerStub(t, date, &seats)
	tg := &telegramStub{}
	cfg := testConfig(t, date, provider.URL, tg.server(t).URL)
	cfg.AuthToken = "Bearer wrong"

	a, err := New(context.Background(), cfg, Options{}, logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Run(context.Background()); err == nil {
		t.Fatal("Run() expected error on rejected credentials")
	}
	if tg.count() != 0 {
		t.Errorf("messages = %d, want 0", tg.count())
	}
}

func TestContinuousStopsOnCancel(t *testing.T) {
	date := futureDate()
	var seats atomic.Int64
	seats.Store(4)
	provider := providerStub(t, date, &seats)
	tg := &telegramStub{}
	cfg := testConfig(t, date, provider.URL, tg.server(t).URL)
	cfg.ListenAddr = "127.0.0.1:0"

	a, err := New(context.Background(), cfg, Options{Continuous: true}, logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !a.poller.Status().Ready() {
		if time.Now().After(deadline) {
			t.Fatal("first cycle did not complete")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if tg.count() != 1 {
		t.Errorf("messages = %d, want 1", tg.count())
	}
}
