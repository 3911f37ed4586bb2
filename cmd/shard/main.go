// Package main runs a single gateway shard: it connects, keeps the session
// alive, and fans dispatched events out to the configured projector.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/shardkit/gateway/gateway"
	"github.com/shardkit/gateway/internal/config"
	"github.com/shardkit/gateway/internal/metrics"
	"github.com/shardkit/gateway/internal/projector"
	"github.com/shardkit/gateway/internal/restclient"
	"github.com/shardkit/gateway/internal/store"
	"github.com/shardkit/gateway/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("loading configuration")
	}

	sessions, err := initStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing session store")
	}

	proj := initProjector(cfg, logger)
	collector := metrics.New()
	notifier := webhook.NewNotifier(cfg.WebhookURL, logger)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, collector, logger)
	}

	shard := buildShard(cfg, sessions, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &runner{
		cfg:       cfg,
		shard:     shard,
		sessions:  sessions,
		projector: proj,
		metrics:   collector,
		notifier:  notifier,
		logger:    logger.With().Int(gateway.LogCtxShard, cfg.ShardNumber).Logger(),
	}
	runner.run(ctx)

	_ = shard.Close()
	runner.persistSession(context.Background())
	if proj != nil {
		_ = proj.Close()
	}
	logger.Info().Msg("shard stopped")
}

// initStore picks the session store by configuration: Postgres when a
// database URL is set, Redis next, the JSON file otherwise.
func initStore(cfg *config.Config, logger zerolog.Logger) (store.SessionStore, error) {
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("using postgres for session storage")
		return store.NewPostgres(cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "" {
		logger.Info().Msg("using redis for session storage")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.NewRedis(ctx, cfg.RedisAddr)
	}
	logger.Info().Str("path", cfg.SessionPath).Msg("using file for session storage")
	return store.NewFile(cfg.SessionPath), nil
}

func initProjector(cfg *config.Config, logger zerolog.Logger) *projector.AMQP {
	if cfg.AMQPURL == "" {
		return nil
	}
	proj, err := projector.NewAMQP(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to amqp broker")
	}
	logger.Info().Msg("event projection to amqp enabled")
	return proj
}

func buildShard(cfg *config.Config, sessions store.SessionStore, logger zerolog.Logger) *gateway.Shard {
	opts := []gateway.ShardOption{gateway.WithLogger(logger)}

	if cfg.Tuning.APIVersion != 0 {
		opts = append(opts, gateway.WithAPIVersion(cfg.Tuning.APIVersion))
	}
	if cfg.Tuning.LargeThreshold != 0 {
		opts = append(opts, gateway.WithLargeThreshold(cfg.Tuning.LargeThreshold))
	}

	switch {
	case cfg.Tuning.GatewayURL != "":
		opts = append(opts, gateway.WithDefaultGatewayURL(cfg.Tuning.GatewayURL))
	default:
		// Ask the REST API where to connect; fall back to the compiled-in
		// default if it is unreachable.
		if gb, err := restclient.New(cfg.Token).GatewayBot(); err != nil {
			logger.Warn().Err(err).Msg("gateway/bot lookup failed, using default URL")
		} else {
			opts = append(opts, gateway.WithDefaultGatewayURL(gb.URL))
			if gb.Shards > cfg.ShardTotal {
				logger.Warn().Int("recommended", gb.Shards).Int("configured", cfg.ShardTotal).
					Msg("gateway recommends more shards than configured")
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if rec, ok, err := sessions.Load(ctx, cfg.ShardNumber); err != nil {
		logger.Warn().Err(err).Msg("loading stored session failed, starting fresh")
	} else if ok {
		logger.Info().Str(gateway.LogCtxSession, rec.SessionID).Uint64("seq", rec.Sequence).
			Msg("resuming stored session")
		opts = append(opts, gateway.WithInitialSession(rec.SessionID, rec.Sequence, rec.ResumeURL))
	}

	id := gateway.ShardID{Number: cfg.ShardNumber, Total: cfg.ShardTotal}
	return gateway.New(cfg.Token, id, cfg.Intents, opts...)
}

func serveMetrics(addr string, collector *metrics.Collector, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}

// runner consumes the shard's event stream and drives the side effects the
// core deliberately does not own: retry pacing, session persistence,
// metrics, notifications, projection.
type runner struct {
	cfg       *config.Config
	shard     *gateway.Shard
	sessions  store.SessionStore
	projector *projector.AMQP
	metrics   *metrics.Collector
	notifier  *webhook.Notifier
	logger    zerolog.Logger

	lastPersist time.Time
}

const persistInterval = 30 * time.Second

func (r *runner) run(ctx context.Context) {
	shardLabel := strconv.Itoa(r.cfg.ShardNumber)

	for {
		ev, err := r.shard.NextEvent(ctx)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return

		case errors.Is(err, gateway.ErrShardClosed):
			r.logger.Error().Msg("shard fatally closed")
			r.notifier.NotifyFatal(r.cfg.ShardNumber, "gateway closed the session with a non-resumable code")
			r.dropSession(ctx)
			return

		case err != nil:
			r.handleError(ctx, err, shardLabel)

		case ev != nil:
			r.handleEvent(ctx, ev, shardLabel)
		}
	}
}

func (r *runner) handleError(ctx context.Context, err error, shardLabel string) {
	var reconnectErr *gateway.ReconnectError
	if errors.As(err, &reconnectErr) {
		delay := gateway.DefaultBackoff(reconnectErr.Attempt - 1)
		r.metrics.Reconnects.WithLabelValues(shardLabel).Inc()
		r.logger.Warn().Err(reconnectErr.Cause).Int("attempt", reconnectErr.Attempt).
			Dur("delay", delay).Msg("connect failed, backing off")
		r.notifier.NotifyReconnecting(r.cfg.ShardNumber, reconnectErr.Attempt, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
		return
	}

	var deserErr *gateway.DeserializeError
	if errors.As(err, &deserErr) {
		r.logger.Warn().Err(deserErr.Cause).Str(gateway.LogCtxEvent, deserErr.Event).
			Msg("undecodable frame skipped")
		return
	}

	r.logger.Error().Err(err).Msg("event stream error")
}

func (r *runner) handleEvent(ctx context.Context, ev gateway.Event, shardLabel string) {
	switch e := ev.(type) {
	case gateway.ReadyEvent:
		r.metrics.ShardUp.WithLabelValues(shardLabel).Set(1)
		r.metrics.EventsReceived.WithLabelValues(shardLabel, gateway.EventNameReady).Inc()
		r.logger.Info().Str(gateway.LogCtxSession, e.SessionID).Msg("session established")
		r.notifier.NotifyActive(r.cfg.ShardNumber, e.SessionID, false)
		r.persistSession(ctx)

	case gateway.ResumedEvent:
		r.metrics.ShardUp.WithLabelValues(shardLabel).Set(1)
		r.metrics.EventsReceived.WithLabelValues(shardLabel, gateway.EventNameResumed).Inc()
		sessionID, _, _ := r.shard.SessionSnapshot()
		r.logger.Info().Str(gateway.LogCtxSession, sessionID).Msg("session resumed")
		r.notifier.NotifyActive(r.cfg.ShardNumber, sessionID, true)
		r.persistSession(ctx)

	case gateway.GatewayCloseEvent:
		r.metrics.ShardUp.WithLabelValues(shardLabel).Set(0)
		code := "1005"
		if e.Frame != nil {
			code = strconv.Itoa(int(e.Frame.Code))
		}
		r.metrics.GatewayCloses.WithLabelValues(shardLabel, code).Inc()
		r.logger.Warn().Str(gateway.LogCtxCloseCode, code).Msg("connection closed")
		r.persistSession(ctx)

	case gateway.UnhandledEvent:
		r.metrics.EventsReceived.WithLabelValues(shardLabel, e.Name).Inc()
		if r.projector != nil {
			if err := r.projector.Project(ctx, e); err != nil {
				r.logger.Warn().Err(err).Str(gateway.LogCtxEvent, e.Name).Msg("projection failed")
			}
		}
		r.maybePersistSession(ctx)
	}
}

// persistSession snapshots the live session into the store, or clears the
// stored record when the shard has none.
func (r *runner) persistSession(ctx context.Context) {
	sessionID, seq, ok := r.shard.SessionSnapshot()
	if !ok {
		r.dropSession(ctx)
		return
	}
	rec := store.Record{SessionID: sessionID, Sequence: seq, ResumeURL: r.shard.ResumeURL()}
	if err := r.sessions.Save(ctx, r.cfg.ShardNumber, rec); err != nil {
		r.logger.Warn().Err(err).Msg("persisting session failed")
		return
	}
	r.metrics.Sequence.WithLabelValues(strconv.Itoa(r.cfg.ShardNumber)).Set(float64(seq))
	r.lastPersist = time.Now()
}

// maybePersistSession throttles per-dispatch persistence; losing up to
// persistInterval of sequence progress on a crash only means replaying that
// window after resume.
func (r *runner) maybePersistSession(ctx context.Context) {
	if time.Since(r.lastPersist) < persistInterval {
		return
	}
	r.persistSession(ctx)
}

func (r *runner) dropSession(ctx context.Context) {
	if err := r.sessions.Delete(ctx, r.cfg.ShardNumber); err != nil {
		r.logger.Warn().Err(err).Msg("clearing stored session failed")
	}
}
