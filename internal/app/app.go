package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/seatwatch/internal/auth"
	"github.com/MrSnakeDoc/seatwatch/internal/config"
	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/httpserver"
	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/metrics"
	"github.com/MrSnakeDoc/seatwatch/internal/monitor"
	"github.com/MrSnakeDoc/seatwatch/internal/notify"
	"github.com/MrSnakeDoc/seatwatch/internal/redis"
	"github.com/MrSnakeDoc/seatwatch/internal/scheduler"
	"github.com/MrSnakeDoc/seatwatch/internal/sources/tcdd"
	"github.com/MrSnakeDoc/seatwatch/internal/store"
	redisstore "github.com/MrSnakeDoc/seatwatch/internal/store/redis"
	"github.com/MrSnakeDoc/seatwatch/internal/utils"
	"github.com/MrSnakeDoc/seatwatch/internal/version"
)

// checksPerMinute bounds POST /check per client.
const checksPerMinute = 6

// Options are the command line switches.
type Options struct {
	Continuous bool
	// DryRun logs alerts instead of sending them and never writes the real state.
	DryRun bool
}

type App struct {
	cfg         *config.Config
	opts        Options
	logger      logger.Logger
	metrics     *metrics.Metrics
	poller      *scheduler.Poller
	server      *httpserver.Server
	redisClient *goredis.Client
}

// New wires every component from cfg. It connects to redis when the redis
// state backend is selected and fails if it stays unreachable.
func New(ctx context.Context, cfg *config.Config, opts Options, loggerClient logger.Logger) (*App, error) {
	opts.Continuous = opts.Continuous || cfg.Continuous
	opts.DryRun = opts.DryRun || cfg.DryRun
	loggerClient.Debug("configuration loaded", logger.Stringer("route", cfg.Route))
	loggerClient.Debugf("config: %+v", cfg.Redacted())

	a := &App{
		cfg:     cfg,
		opts:    opts,
		logger:  loggerClient,
		metrics: metrics.New(),
	}

	st, locker, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}

	notifier, err := a.newNotifier()
	if err != nil {
		a.close()
		return nil, err
	}

	source := tcdd.NewSource(
		tcdd.NewClient(tcdd.ClientOptions{
			Endpoint: cfg.TCDDEndpoint,
			UnitID:   cfg.UnitID,
			Route:    cfg.Route,
			Timeout:  cfg.RequestTimeout,
		}, a.newTokens(ctx), loggerClient.Named("tcdd")),
		tcdd.NewMapper(cfg.CabinClasses, cfg.Location),
	)

	cycle := monitor.NewCycle(monitor.Options{
		Route:    cfg.Route,
		Window:   cfg.Window,
		Dates:    cfg.Dates,
		Match:    cfg.Match,
		Location: cfg.Location,
		Delay:    cfg.RequestDelay,
	}, source, notifier, st, locker, a.metrics, loggerClient.Named("monitor"))

	a.poller = scheduler.NewPoller(cycle, monitor.NewStatus(), loggerClient.Named("scheduler"), cfg.PollInterval)

	if opts.Continuous && cfg.ListenAddr != "" {
		a.server = httpserver.New(cfg.ListenAddr, loggerClient.Named("http"), deps.Deps{
			Logger:       loggerClient.Named("http"),
			StartTime:    time.Now(),
			Version:      version.Version,
			Commit:       version.Commit,
			BuildDate:    version.BuildDate,
			GoVersion:    version.GoVersion,
			TimeNow:      time.Now,
			AllowedCIDRS: cfg.AllowedCIDRS,
			TrustProxy:   cfg.TrustProxy,
			Route:        cfg.Route,
			PollInterval: cfg.PollInterval,
			StateBackend: cfg.StateBackend,
			RedisClient:  a.redisClient,
			Status:       a.poller.Status(),
			Trigger:      a.poller.Trigger,
			Metrics:      a.metrics.Handler(),
			Forbidden:    a.metrics.Forbidden,
			CheckLimit:   checksPerMinute,
		})
	}

	return a, nil
}

// newStore returns the state slot and, for the redis backend, the cycle lock.
// A dry run works on an in-memory copy of the persisted state.
func (a *App) newStore(ctx context.Context) (monitor.Store, monitor.Locker, error) {
	var (
		st     monitor.Store
		locker monitor.Locker
		route  = a.cfg.Route.Key()
	)

	switch a.cfg.StateBackend {
	case config.StateBackendRedis:
		a.logger.Infof("Connecting to Redis at %s", a.cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           a.cfg.RedisAddr,
			User:           a.cfg.RedisUser,
			Password:       a.cfg.RedisPassword,
			RedisDB:        a.cfg.RedisDB,
			DialTimeout:    a.cfg.RedisDT,
			ReadTimeout:    a.cfg.RedisRT,
			WriteTimeout:   a.cfg.RedisWT,
			PoolSize:       a.cfg.RedisPoolSize,
			ConnectTimeout: a.cfg.RedisConnectTimeout,
			RetryInterval:  a.cfg.RedisRetryInterval,
			MaxWait:        a.cfg.RedisMaxWait,
			PingTimeout:    a.cfg.RedisPingTimeout,
			WarnThreshold:  a.cfg.RedisWarnThreshold,
		}, a.logger.Named("redis"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redisClient = client
		st = redisstore.NewStateStore(client, route, redisstore.DefaultStateTTL, a.logger.Named("store"))
		locker = redisstore.NewLock(client, route, a.cfg.LockTTL)
	default:
		st = store.NewFile(a.cfg.StateFile, route, a.logger.Named("store"))
	}

	if !a.opts.DryRun {
		return st, locker, nil
	}

	state, err := st.Load(ctx)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	a.logger.Info("dry run: state changes are kept in memory",
		logger.Int("known_dates", len(state.Snapshots)))
	return store.NewMemoryFrom(state), nil, nil
}

// newNotifier only falls back to logging when asked to: a silently dropped
// alert would still move the saved baseline forward.
func (a *App) newNotifier() (monitor.Notifier, error) {
	if a.opts.DryRun || a.cfg.Notifier == config.NotifierLog {
		a.logger.Info("alerts are only logged", logger.Bool("dry_run", a.opts.DryRun))
		return notify.NewLogNotifier(a.logger.Named("notify")), nil
	}
	if !a.cfg.HasTelegram() {
		return nil, fmt.Errorf("%w: telegram is not configured", domain.ErrConfiguration)
	}
	return notify.NewTelegram(notify.TelegramOptions{
		BotToken: a.cfg.TelegramBotToken,
		ChatID:   a.cfg.TelegramChatID,
		BaseURL:  a.cfg.TelegramAPIURL,
		Timeout:  a.cfg.RequestTimeout,
	}, a.logger.Named("telegram"))
}

// newTokens prefers the static token while it is valid, then the OAuth2 grant.
func (a *App) newTokens(ctx context.Context) auth.TokenProvider {
	var providers []auth.TokenProvider
	if a.cfg.AuthToken != "" {
		providers = append(providers, auth.NewStaticToken(a.cfg.AuthToken))
	}
	if a.cfg.HasOAuth() {
		providers = append(providers, auth.NewClientCredentials(ctx, auth.ClientCredentialsConfig{
			TokenURL:     a.cfg.OAuthTokenURL,
			ClientID:     a.cfg.OAuthClientID,
			ClientSecret: a.cfg.OAuthClientSecret,
			Scopes:       a.cfg.OAuthScopes,
		}))
	}
	return auth.NewChain(a.logger.Named("auth"), providers...)
}

// Run performs a single cycle, or polls until ctx is cancelled in continuous mode.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	a.logger.Info("seatwatch starting",
		logger.String("version", version.Version),
		logger.String("commit", version.Commit),
		logger.Stringer("route", a.cfg.Route),
		logger.Stringer("dates", a.cfg.Dates.Mode),
		logger.Bool("continuous", a.opts.Continuous),
		logger.Bool("dry_run", a.opts.DryRun))

	if !a.opts.Continuous {
		res, err := a.poller.RunOnce(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("✅ check finished",
			logger.String("outcome", string(res.Outcome)),
			logger.Int("newly_available", res.NewlyAvailable()))
		return nil
	}

	errCh := make(chan error, 1)
	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.poller.Run(pollCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		runErr = err
	}

	a.poller.Stop()
	cancel()
	<-done

	if a.server != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancelShutdown()
		if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
			runErr = fmt.Errorf("failed to stop server: %w", err)
		}
	}

	if runErr == nil {
		a.logger.Info("✅ seatwatch stopped cleanly")
	}
	return runErr
}

func (a *App) close() {
	if a.redisClient == nil {
		return
	}
	utils.MustClose(a.redisClient, "redis", a.logger)
	a.redisClient = nil
}
