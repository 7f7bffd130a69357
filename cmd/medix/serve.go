package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medix/internal/audit"
	authhandler "medix/internal/auth/handler"
	authmetrics "medix/internal/auth/metrics"
	authservice "medix/internal/auth/service"
	"medix/internal/auth/store/revocation"
	"medix/internal/auth/token"
	"medix/internal/doctor/cache"
	doctorhandler "medix/internal/doctor/handler"
	doctormetrics "medix/internal/doctor/metrics"
	doctorservice "medix/internal/doctor/service"
	"medix/internal/gateway"
	"medix/internal/platform/config"
	"medix/internal/platform/httpserver"
	"medix/internal/platform/logger"
	"medix/internal/platform/metrics"
	"medix/internal/platform/redis"
	"medix/internal/ratelimit"
	ratelimitmetrics "medix/internal/ratelimit/metrics"
	"medix/internal/registry"
	registryhandler "medix/internal/registry/handler"
	registrymetrics "medix/internal/registry/metrics"
	httptransport "medix/internal/transport/http"
	verificationhandler "medix/internal/verification/handler"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin portal HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger.New(cfg.LogLevel))
		},
	}
}

// serve wires dependencies and blocks until ctx is cancelled.
func serve(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.InfoContext(ctx, "redis connected")
	}

	auditSink, kafkaSink, err := newAuditSink(cfg.Audit, log)
	if err != nil {
		return err
	}
	auditor := audit.NewPublisher(auditSink, audit.WithAsyncBuffer(256), audit.WithLogger(log))
	defer func() {
		auditor.Close()
		if kafkaSink != nil {
			kafkaSink.Close()
		}
	}()

	gw := gateway.New(cfg.API.BaseURL, cfg.API.Version, gateway.WithTimeout(cfg.API.Timeout))

	var listCache doctorservice.ListCache = cache.NewMemoryCache(cfg.ListCacheTTL)
	var trl authservice.RevocationList = revocation.NewInMemoryTRL()
	var limitStore ratelimit.Store = ratelimit.NewInMemoryStore()
	if redisClient != nil {
		listCache = cache.NewRedisCache(redisClient.Client, cfg.ListCacheTTL)
		trl = revocation.NewRedisTRL(redisClient.Client)
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.NewLimiter(limitStore, map[ratelimit.EndpointClass]ratelimit.Limit{
		ratelimit.ClassAuth: {Requests: cfg.RateLimit.AuthPerMinute, Window: time.Minute},
		ratelimit.ClassAPI:  {Requests: cfg.RateLimit.APIPerMinute, Window: time.Minute},
	}, log, ratelimit.WithMetrics(ratelimitmetrics.New()))

	tokens, err := token.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("session tokens: %w", err)
	}
	authOpts := []authservice.Option{
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithAuditPublisher(auditor),
	}
	if cfg.DevLoginAllowed() {
		log.WarnContext(ctx, "dev login bypass enabled; never use in production",
			"email", cfg.DevLogin.Email,
		)
		authOpts = append(authOpts, authservice.WithDevLogin(cfg.DevLogin.Email, cfg.DevLogin.PasswordHash))
	}
	authSvc := authservice.New(gw, tokens, trl, log, authOpts...)

	doctorSvc := doctorservice.New(gw, listCache, log,
		doctorservice.WithMetrics(doctormetrics.New()),
		doctorservice.WithAuditPublisher(auditor),
	)

	registrySvc := registry.NewService(registry.NewClient(cfg.Registry.URL, cfg.Registry.Timeout), log,
		registry.WithMetrics(registrymetrics.New()),
	)

	httpMetrics := metrics.New()
	readiness := []httptransport.ReadinessCheck{}
	if redisClient != nil {
		readiness = append(readiness, httptransport.ReadinessCheck{Name: "redis", Check: redisClient.Health})
	}
	if kafkaSink != nil {
		readiness = append(readiness, httptransport.ReadinessCheck{Name: "kafka", Check: kafkaSink.Ping})
	}

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		Metrics:        httpMetrics,
		Sessions:       authSvc,
		Limiter:        limiter,
		TrustedProxies: cfg.TrustedProxies,
		Public: []httptransport.Registrar{
			authhandler.New(authSvc, log, cfg.Session.CookieSecure),
		},
		Protected: []httptransport.Registrar{
			doctorhandler.New(doctorSvc, log),
			registryhandler.New(registrySvc, auditor, log),
			verificationhandler.New(registrySvc, cfg.VerifyDebounce, httpMetrics, log),
		},
		Readiness:     readiness,
		ExposeMetrics: true,
	})

	srv := httpserver.New(cfg.Addr, router, log)
	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "starting medix admin portal",
			"addr", cfg.Addr,
			"env", cfg.Env,
			"api_base_url", cfg.API.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newAuditSink picks Kafka when brokers are configured, the log otherwise.
// Kafka outages spill to the log until the broker recovers.
func newAuditSink(cfg config.AuditConfig, log *slog.Logger) (audit.Sink, *audit.KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return audit.NewLogSink(log), nil, nil
	}
	sink, err := audit.NewKafkaSink(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("audit events published to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return audit.NewBreakerSink(sink, audit.NewLogSink(log), 5, time.Minute), sink, nil
}
