package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

const (
	envPrefix = "SEATWATCH_"

	StateBackendFile  = "file"
	StateBackendRedis = "redis"

	NotifierTelegram = "telegram"
	NotifierLog      = "log"
)

type Config struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Continuous   bool          // run forever instead of a single cycle
	DryRun       bool          // log alerts and keep the persisted state untouched
	PollInterval time.Duration // pause between two cycles in continuous mode

	Route        domain.Route
	Window       domain.CheckWindow
	Dates        domain.DatePolicy
	CabinClasses []string
	Match        domain.MatchMode
	Timezone     string
	Location     *time.Location

	// Provider
	TCDDEndpoint   string
	UnitID         string
	RequestTimeout time.Duration
	RequestDelay   time.Duration // courtesy pause between multi-date fetches

	// Credentials
	AuthToken         string
	OAuthTokenURL     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthScopes       []string

	// Notifier
	Notifier         string // "telegram" | "log"
	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIURL   string

	// State
	StateBackend string // "file" | "redis"
	StateFile    string
	LockTTL      time.Duration

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// HTTP surface, continuous mode only. Empty ListenAddr disables it.
	ListenAddr      string
	ShutdownTimeout time.Duration
	AllowedCIDRS    []string // optional, restrict access to specific IPs or CIDRs
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// Option adjusts the configuration before validation, e.g. from command line flags.
type Option func(*Config)

// WithDryRun forces a dry run when dry is set.
func WithDryRun(dry bool) Option {
	return func(c *Config) {
		c.DryRun = c.DryRun || dry
	}
}

// Load reads .env (if present), the optional YAML file named by
// SEATWATCH_CONFIG_FILE and the environment, in increasing precedence.
// Every problem is reported at once in an error matching domain.ErrConfiguration.
func Load(opts ...Option) (*Config, error) {
	if err := godotenv.Load(getenv(envPrefix+"ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load env file: %v", domain.ErrConfiguration, err)
	}

	file, err := loadFile(os.Getenv(envPrefix + "CONFIG_FILE"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	r := &reader{}
	cfg := &Config{
		// Logging
		LogLevel:  r.str("LOG_LEVEL", "info"),
		PrettyLog: r.boolean("PRETTY_LOG", false),

		Continuous:   r.boolean("CONTINUOUS", false),
		DryRun:       r.boolean("DRY_RUN", false),
		PollInterval: r.pollInterval(file.PollInterval),

		Route: domain.Route{
			DepartureID:   r.requiredInt("DEPARTURE_STATION_ID", file.Route.DepartureID),
			DepartureName: r.required("DEPARTURE_STATION_NAME", file.Route.DepartureName),
			ArrivalID:     r.requiredInt("ARRIVAL_STATION_ID", file.Route.ArrivalID),
			ArrivalName:   r.required("ARRIVAL_STATION_NAME", file.Route.ArrivalName),
		},
		Window: domain.CheckWindow{
			Start: r.timeOfDay("CHECK_START", or(file.CheckStart, "00:00")),
			End:   r.timeOfDay("CHECK_END", or(file.CheckEnd, "23:59")),
		},
		Dates:        r.datePolicy(file),
		CabinClasses: r.list("CABIN_CLASSES", orSlice(file.CabinClasses, domain.DefaultCabinClasses)),
		Match:        r.matchMode("DIFF_MATCH", file.DiffMatch),
		Timezone:     r.str("TIMEZONE", or(file.Timezone, "Europe/Istanbul")),

		// Provider
		TCDDEndpoint:   r.str("TCDD_ENDPOINT", file.Endpoint),
		UnitID:         r.str("UNIT_ID", file.UnitID),
		RequestTimeout: r.duration("REQUEST_TIMEOUT", 30*time.Second),
		RequestDelay:   r.duration("REQUEST_DELAY", time.Second),

		// Credentials
		AuthToken:         r.str("AUTH_TOKEN", ""),
		OAuthTokenURL:     r.str("OAUTH_TOKEN_URL", ""),
		OAuthClientID:     r.str("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: r.str("OAUTH_CLIENT_SECRET", ""),
		OAuthScopes:       r.list("OAUTH_SCOPES", nil),

		// Notifier
		Notifier:         r.str("NOTIFIER", NotifierTelegram),
		TelegramBotToken: r.str("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   r.str("TELEGRAM_CHAT_ID", ""),
		TelegramAPIURL:   r.str("TELEGRAM_API_URL", ""),

		// State
		StateBackend: r.str("STATE_BACKEND", or(file.StateBackend, StateBackendFile)),
		StateFile:    r.str("STATE_FILE", or(file.StateFile, "state.json")),
		LockTTL:      r.duration("LOCK_TTL", 5*time.Minute),

		// Redis settings
		RedisAddr:           r.str("REDIS_ADDR", "localhost:6379"),
		RedisUser:           r.str("REDIS_USERNAME", ""),
		RedisPassword:       r.str("REDIS_PASSWORD", ""),
		RedisDB:             r.integer("REDIS_DB", 0),
		RedisDT:             r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        r.duration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    r.duration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       r.integer("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: r.duration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  r.duration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  r.integer("REDIS_WARN_THRESHOLD", 3),

		// HTTP surface
		ListenAddr:      r.str("LISTEN_ADDR", ""),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 5*time.Second),
		AllowedCIDRS:    r.list("ALLOWED_CIDRS", nil),
		TrustProxy:      r.boolean("TRUST_PROXY", false),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.validate(r)
	if r.errs != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, r.errs)
	}
	return cfg, nil
}

func (c *Config) validate(r *reader) {
	if c.Route.DepartureID < 0 || c.Route.ArrivalID < 0 {
		r.fail(errors.New("station ids must not be negative"))
	}
	if err := c.Dates.Validate(); err != nil {
		r.fail(err)
	}
	if c.PollInterval <= 0 {
		r.fail(errors.New(envPrefix + "POLL_INTERVAL must be positive"))
	}
	if len(c.CabinClasses) == 0 {
		r.fail(errors.New(envPrefix + "CABIN_CLASSES must not be empty"))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		r.fail(fmt.Errorf("%sTIMEZONE: %w", envPrefix, err))
	}
	c.Location = loc

	oauth := c.OAuthTokenURL != "" || c.OAuthClientID != "" || c.OAuthClientSecret != ""
	if oauth && (c.OAuthTokenURL == "" || c.OAuthClientID == "" || c.OAuthClientSecret == "") {
		r.fail(errors.New("OAuth needs " + envPrefix + "OAUTH_TOKEN_URL, _CLIENT_ID and _CLIENT_SECRET together"))
	}
	if c.AuthToken == "" && !oauth {
		r.fail(errors.New("no credential configured: set " + envPrefix + "AUTH_TOKEN or the " + envPrefix + "OAUTH_* variables"))
	}

	switch c.Notifier {
	case NotifierTelegram:
		// A dry run never sends, so it may lack credentials.
		if !c.DryRun && !c.HasTelegram() {
			r.fail(errors.New("telegram notifier needs " + envPrefix + "TELEGRAM_BOT_TOKEN and " + envPrefix + "TELEGRAM_CHAT_ID (set " + envPrefix + "NOTIFIER=log to only log alerts)"))
		}
	case NotifierLog:
	default:
		r.fail(fmt.Errorf("%sNOTIFIER: unknown notifier %q (want telegram|log)", envPrefix, c.Notifier))
	}

	switch c.StateBackend {
	case StateBackendFile:
		if c.StateFile == "" {
			r.fail(errors.New(envPrefix + "STATE_FILE must not be empty"))
		}
	case StateBackendRedis:
		if c.RedisAddr == "" {
			r.fail(errors.New(envPrefix + "REDIS_ADDR is required for the redis state backend"))
		}
	default:
		r.fail(fmt.Errorf("%sSTATE_BACKEND: unknown backend %q (want file|redis)", envPrefix, c.StateBackend))
	}
}

// HasTelegram reports whether notifications can be delivered.
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// HasOAuth reports whether the client-credentials grant is configured.
func (c *Config) HasOAuth() bool {
	return c.OAuthTokenURL != "" && c.OAuthClientID != "" && c.OAuthClientSecret != ""
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	for _, s := range []*string{&cp.AuthToken, &cp.OAuthClientSecret, &cp.TelegramBotToken, &cp.RedisPassword} {
		if *s != "" {
			*s = "***REDACTED***"
		}
	}
	return cp
}

// reader reads SEATWATCH_ variables and accumulates every parse error.
type reader struct {
	errs error
}

func (r *reader) fail(err error) {
	r.errs = multierr.Append(r.errs, err)
}

func (r *reader) str(key, def string) string {
	return getenv(envPrefix+key, def)
}

func (r *reader) required(key, def string) string {
	v := r.str(key, def)
	if v == "" {
		r.fail(fmt.Errorf("%s%s is required", envPrefix, key))
	}
	return v
}

func (r *reader) integer(key string, def int) int {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.fail(fmt.Errorf("%s%s: invalid integer %q", envPrefix, key, v))
		return def
	}
	return i
}

func (r *reader) requiredInt(key string, def int) int {
	if os.Getenv(envPrefix+key) == "" && def == 0 {
		r.fail(fmt.Errorf("%s%s is required", envPrefix, key))
		return 0
	}
	return r.integer(key, def)
}

func (r *reader) boolean(key string, def bool) bool {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		r.fail(fmt.Errorf("%s%s: invalid boolean %q", envPrefix, key, v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.fail(fmt.Errorf("%s%s: invalid duration %q", envPrefix, key, v))
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return splitAndTrim(v)
	}
	return def
}

func (r *reader) timeOfDay(key, def string) domain.TimeOfDay {
	raw := r.str(key, def)
	t, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		r.fail(fmt.Errorf("%s%s: %w", envPrefix, key, err))
	}
	return t
}

func (r *reader) date(key, def string) civil.Date {
	raw := r.str(key, def)
	if raw == "" {
		return civil.Date{}
	}
	d, err := civil.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		r.fail(fmt.Errorf("%s%s: invalid date %q (want YYYY-MM-DD)", envPrefix, key, raw))
	}
	return d
}

func (r *reader) matchMode(key, def string) domain.MatchMode {
	m, err := domain.ParseMatchMode(r.str(key, def))
	if err != nil {
		r.fail(fmt.Errorf("%s%s: %w", envPrefix, key, err))
	}
	return m
}

// pollInterval accepts SEATWATCH_POLL_INTERVAL (duration) or
// SEATWATCH_POLL_INTERVAL_MINUTES (positive integer), default five minutes.
func (r *reader) pollInterval(fileValue string) time.Duration {
	if os.Getenv(envPrefix+"POLL_INTERVAL_MINUTES") != "" {
		minutes := r.integer("POLL_INTERVAL_MINUTES", 0)
		if minutes < 1 {
			r.fail(errors.New(envPrefix + "POLL_INTERVAL_MINUTES must be a positive number"))
		}
		return time.Duration(minutes) * time.Minute
	}
	def := 5 * time.Minute
	if fileValue != "" {
		d, err := time.ParseDuration(fileValue)
		if err != nil {
			r.fail(fmt.Errorf("poll_interval: invalid duration %q", fileValue))
		} else {
			def = d
		}
	}
	return r.duration("POLL_INTERVAL", def)
}

func (r *reader) datePolicy(file fileConfig) domain.DatePolicy {
	multi := r.boolean("CHECK_MULTIPLE_DATES", file.CheckMultipleDates)
	if !multi {
		raw := r.required("DEPARTURE_DATE", file.DepartureDate)
		if raw == "" {
			return domain.DatePolicy{Mode: domain.DateModeSingle}
		}
		return domain.SingleDate(r.date("DEPARTURE_DATE", file.DepartureDate))
	}

	maxDays := 7
	if file.MaxDaysToCheck != nil {
		maxDays = *file.MaxDaysToCheck
	}
	return domain.DatePolicy{
		Mode:         domain.DateModeRange,
		RangeStart:   r.date("DATE_RANGE_START", file.DateRangeStart),
		RangeEnd:     r.date("DATE_RANGE_END", file.DateRangeEnd),
		MaxDaysAhead: r.integer("MAX_DAYS_TO_CHECK", maxDays),
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orSlice(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
