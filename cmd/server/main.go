// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Command server boots the FeedStream fan-out engine.

Architecture:

 1. Configuration — LoadWithKoanf layers struct defaults, an optional
    YAML file, and environment variables (internal/config).
 2. Durable store — feedstore.Open opens the on-disk DuckDB database
    holding relations and per-feed events.
 3. Timeline cache — feedcache.NewRedisStore wraps a Redis client with
    a gobreaker circuit breaker guarding the sorted-set operations that
    back consume.
 4. Feed registrations — the two demo feeds from the reference
    aggregation system: "feed" (flat/broadcast, verb "podcast") and
    "notification" (directed activity, verbs "like"/"follow"/"comment"/
    "mention").
 5. Event processor — internal/eventprocessor wires each registration's
    handler to the task queue and preloads the cache from the store on
    boot.
 6. Worker pool — internal/taskqueue runs the queued publish/retract/
    subscribe/unsubscribe jobs.
 7. HTTP server — internal/api exposes the processor over chi.
 8. Supervisor tree — internal/supervisor runs the worker pool and the
    HTTP server as suture services, restarting either on crash.

Shutdown: SIGINT/SIGTERM cancels the root context; the supervisor tree
stops the HTTP server (graceful, bounded) and the worker pool in turn.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sh4yy/feedstream/internal/api"
	"github.com/sh4yy/feedstream/internal/config"
	"github.com/sh4yy/feedstream/internal/eventprocessor"
	"github.com/sh4yy/feedstream/internal/feed"
	"github.com/sh4yy/feedstream/internal/feed/feedcache"
	"github.com/sh4yy/feedstream/internal/feed/feedstore"
	"github.com/sh4yy/feedstream/internal/logging"
	"github.com/sh4yy/feedstream/internal/supervisor"
	"github.com/sh4yy/feedstream/internal/taskqueue"
)

// registrations lists the feeds FeedStream starts with, grounded on
// the reference aggregation system's setup_system(): a flat "feed"
// broadcast feed for podcast publishes, and a directed "notification"
// activity feed for social-style verbs.
var registrations = []feed.Registration{
	{
		Name:         "feed",
		FeedKind:     feed.KindFlat,
		Verbs:        []string{"podcast"},
		IncludeActor: true,
		MaxCache:     500,
	},
	{
		Name:         "notification",
		FeedKind:     feed.KindActivity,
		Verbs:        []string{"like", "follow", "comment", "mention"},
		IncludeActor: false,
		MaxCache:     200,
	},
}

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	store, err := feedstore.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open durable store")
	}
	defer store.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	cache := feedcache.NewRedisStore(redisClient, feedcache.BreakerConfig{
		Name:             "redis-timeline-cache",
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	})

	queue := taskqueue.New(cfg.Queue.Capacity)
	processor := eventprocessor.New(queue)

	relations := store.Relations()
	for _, reg := range registrations {
		var handler feed.Handler
		switch reg.FeedKind {
		case feed.KindFlat:
			handler = feed.NewFlatHandler(reg, relations, store.Flat(), cache)
		case feed.KindActivity:
			handler = feed.NewActivityHandler(reg, relations, store.Activities(), cache)
		}
		if err := processor.Register(handler); err != nil {
			logging.Fatal().Err(err).Str("feed", reg.Name).Msg("failed to register feed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := processor.Preload(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to preload timeline cache from durable store")
	}

	pool := taskqueue.NewPool(queue, cfg.Queue.Workers)

	router := api.NewRouter(processor, store, cache, api.DefaultMiddlewareConfig())
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build supervisor tree")
	}
	tree.AddWorkerService(pool)
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	logging.Info().
		Str("addr", httpServer.Addr).
		Int("feeds", len(registrations)).
		Msg("feedstream starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("supervisor tree exited with error")
	}
}
