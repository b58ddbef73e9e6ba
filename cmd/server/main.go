package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"agegate/internal/oidc"
	"agegate/internal/platform/config"
	"agegate/internal/platform/httpserver"
	"agegate/internal/platform/logger"
	"agegate/internal/platform/metrics"
	platformredis "agegate/internal/platform/redis"
	"agegate/internal/verification/handler"
	"agegate/internal/verification/service"
	"agegate/internal/verification/session"
	"agegate/internal/verification/store"
	"agegate/internal/verification/token"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := oidc.Discover(ctx, cfg.Issuer, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	if err != nil {
		log.Error("identity provider discovery failed", "issuer", cfg.Issuer, "error", err.Error())
		os.Exit(1)
	}

	var records store.Store = store.NewInMemory()
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer redisClient.Close()
		records = store.NewRedis(redisClient.Client)
		log.Info("using redis verification store")
	}

	svc := service.New(
		provider,
		session.NewManager(),
		records,
		token.NewIssuer(cfg.TokenSigningKey),
		log,
		metrics.New(),
		cfg.MinimumAge,
		cfg.StorefrontURL,
	)

	h := handler.New(svc, log, handler.Config{
		CookieDomain:     cfg.CookieDomain,
		SecureCookies:    cfg.SecureCookies,
		StorefrontOrigin: cfg.StorefrontURL,
	})

	srv := httpserver.New(cfg.Addr, handler.NewRouter(h))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting agegate broker", "addr", cfg.Addr, "redirect_uri", cfg.RedirectURI)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}
