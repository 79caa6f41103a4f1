// Package redis opens the go-redis client used by the redis state backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

// ConnectOptions defines the client settings and the startup retry policy.
type ConnectOptions struct {
	Addr           string        // "host:port" or a redis:// / rediss:// URL
	User           string        // Optional username, ignored when Addr is a URL carrying one
	Password       string        // Optional password, ignored when Addr is a URL carrying one
	RedisDB        int           // Redis DB number
	DialTimeout    time.Duration // Redis dial timeout
	ReadTimeout    time.Duration // Redis read timeout
	WriteTimeout   time.Duration // Redis write timeout
	PoolSize       int           // Redis connection pool size
	ConnectTimeout time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries (ex: 2s, doubles up to MaxWait)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 2s)
	WarnThreshold  int           // attempts logged at warn level before switching to error
}

func (o ConnectOptions) validate() error {
	var errs error
	if o.Addr == "" {
		errs = multierr.Append(errs, errors.New("redis address is empty"))
	}
	if o.ConnectTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout))
	}
	if o.RetryInterval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval))
	}
	if o.MaxWait <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait))
	}
	if o.PingTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout))
	}
	if o.WarnThreshold < 0 {
		errs = multierr.Append(errs, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errs
}

// clientOptions builds the go-redis options. URL credentials and db win over the
// separate fields; timeouts and pool size always come from o.
func (o ConnectOptions) clientOptions() (*redis.Options, error) {
	opts := &redis.Options{
		Addr:     o.Addr,
		Username: o.User,
		Password: o.Password,
		DB:       o.RedisDB,
	}
	if strings.Contains(o.Addr, "://") {
		parsed, err := redis.ParseURL(o.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if parsed.Username == "" {
			parsed.Username = o.User
		}
		if parsed.Password == "" {
			parsed.Password = o.Password
		}
		opts = parsed
	}
	opts.DialTimeout = o.DialTimeout
	opts.ReadTimeout = o.ReadTimeout
	opts.WriteTimeout = o.WriteTimeout
	opts.PoolSize = o.PoolSize
	return opts, nil
}

// New returns a client once redis answers PING. Failed pings are retried with a
// doubling wait until ConnectTimeout elapses or ctx is cancelled.
func New(ctx context.Context, o ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := o.validate(); err != nil {
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}
	opts, err := o.clientOptions()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := waitReady(ctx, client, o, log.With(logger.String("addr", opts.Addr))); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func waitReady(ctx context.Context, client *redis.Client, o ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis", logger.Duration("timeout", o.ConnectTimeout))
	start := time.Now()
	wait := o.RetryInterval

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, o.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			fields := []logger.Field{logger.Int("attempts", attempt), logger.Duration("elapsed", time.Since(start))}
			if attempt > 1 {
				log.Warn("connected to redis after retry", fields...)
			} else {
				log.Info("connected to redis", fields...)
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable, giving up",
				logger.Int("attempts", attempt),
				logger.Duration("elapsed", time.Since(start)),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				client.Options().Addr, attempt, o.ConnectTimeout, err)
		case <-timer.C:
		}

		retry := []logger.Field{
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Duration("remaining", timeLeft(ctx)),
			logger.Error(err),
		}
		if attempt <= o.WarnThreshold {
			log.Warn("redis connection failed, retrying", retry...)
		} else {
			log.Error("redis still unavailable, retrying", retry...)
		}

		wait = min(wait*2, o.MaxWait)
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
