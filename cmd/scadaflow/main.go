/*
 * Copyright 2025 The Scadaflow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// The scadaflow worker consumes trigger events, runs the matching rule
// chains and pushes the results to the configured sinks. It serves
// Prometheus metrics on /metrics and live result streams on /ws/:room.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v3"

	"github.com/scadaflow/scadaflow/adapters/rediscache"
	"github.com/scadaflow/scadaflow/adapters/sqlstore"
	"github.com/scadaflow/scadaflow/adapters/twin"
	"github.com/scadaflow/scadaflow/adapters/wshub"
	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/consumer"
	"github.com/scadaflow/scadaflow/engine"
	"github.com/scadaflow/scadaflow/utils/cache"
	"github.com/scadaflow/scadaflow/utils/json"
)

func main() {
	_ = godotenv.Load()

	command := &cli.Command{
		Name:  "scadaflow",
		Usage: "Run the rule engine worker",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka bootstrap broker addresses",
				Value:   []string{"localhost:9092"},
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-topics",
				Usage:   "Trigger topics to subscribe to",
				Value:   []string{"scadaflow.triggers"},
				Sources: cli.EnvVars("KAFKA_TOPICS"),
			},
			&cli.StringFlag{
				Name:    "kafka-group",
				Usage:   "Consumer group id",
				Value:   "scadaflow-worker",
				Sources: cli.EnvVars("KAFKA_GROUP"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres/MySQL DSN for chains, telemetry and alarms",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "database-driver",
				Usage:   "Database driver (postgres or mysql)",
				Value:   "postgres",
				Sources: cli.EnvVars("DATABASE_DRIVER"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the shared cache, empty uses in-memory",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "twin-url",
				Usage:   "Digital twin (Ditto) base URL",
				Sources: cli.EnvVars("TWIN_URL"),
			},
			&cli.StringFlag{
				Name:    "twin-username",
				Usage:   "Digital twin basic auth user",
				Sources: cli.EnvVars("TWIN_USERNAME"),
			},
			&cli.StringFlag{
				Name:    "twin-password",
				Usage:   "Digital twin basic auth password",
				Sources: cli.EnvVars("TWIN_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "chain-dir",
				Usage:   "Directory of chain JSON documents, loaded next to the store",
				Sources: cli.EnvVars("CHAIN_DIR"),
			},
			&cli.StringFlag{
				Name:    "schedules-file",
				Usage:   "JSON file with cron trigger specs",
				Sources: cli.EnvVars("SCHEDULES_FILE"),
			},
			&cli.StringFlag{
				Name:    "http-addr",
				Usage:   "Listen address for /metrics and /ws",
				Value:   ":9090",
				Sources: cli.EnvVars("HTTP_ADDR"),
			},
			&cli.DurationFlag{
				Name:    "node-timeout",
				Usage:   "Per-node execution timeout",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("NODE_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "shutdown-timeout",
				Usage:   "Grace period for draining in-flight executions",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("SHUTDOWN_TIMEOUT"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	logger := types.DefaultLogger()

	adapters, store, cleanup, err := buildAdapters(command, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ruleEngine := engine.New(types.NewConfig(
		types.WithLogger(logger),
		types.WithAdapters(adapters),
		types.WithNodeTimeout(command.Duration("node-timeout")),
		types.WithShutdownTimeout(command.Duration("shutdown-timeout")),
	))

	if err = loadChains(ctx, command, ruleEngine, store, logger); err != nil {
		return err
	}

	service := consumer.NewService(ruleEngine, logger)
	service.AddSource(consumer.NewKafkaSource(consumer.KafkaSourceConfig{
		Brokers: command.StringSlice("kafka-brokers"),
		Topics:  command.StringSlice("kafka-topics"),
		GroupId: command.String("kafka-group"),
	}, logger, service.HandleRaw))

	if schedulesFile := command.String("schedules-file"); schedulesFile != "" {
		specs, err := loadScheduleSpecs(schedulesFile)
		if err != nil {
			return err
		}
		service.AddSource(consumer.NewScheduleSource(specs, logger, service.Handle))
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = service.Start(runCtx); err != nil {
		return err
	}

	hub, _ := adapters.Broadcaster.(*wshub.Hub)
	httpServer := startHttpServer(command.String("http-addr"), hub, logger)

	logger.Printf("scadaflow worker started, chains=%d", len(ruleEngine.Chains()))
	<-runCtx.Done()
	logger.Printf("shutting down")

	service.Stop()
	ruleEngine.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	if hub != nil {
		hub.Close()
	}
	return nil
}

// buildAdapters assembles the gateway bundle from the configured
// backends. Everything is optional; nodes needing an absent adapter fail
// their own execution, not the worker.
func buildAdapters(command *cli.Command, logger types.Logger) (types.Adapters, *sqlstore.Store, func(), error) {
	var adapters types.Adapters
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var store *sqlstore.Store
	if dsn := command.String("database-url"); dsn != "" {
		var err error
		store, err = sqlstore.NewStore(sqlstore.Config{
			DriverName: command.String("database-driver"),
			Dsn:        dsn,
		})
		if err != nil {
			cleanup()
			return adapters, nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = store.Close() })
		adapters.Store = store
		adapters.Alarms = store
	}

	if twinUrl := command.String("twin-url"); twinUrl != "" {
		adapters.Twin = twin.NewClient(twin.Config{
			BaseUrl:  twinUrl,
			Username: command.String("twin-username"),
			Password: command.String("twin-password"),
		})
	}

	if redisAddr := command.String("redis-addr"); redisAddr != "" {
		redisCache := rediscache.NewCache(rediscache.Config{Addr: redisAddr})
		cleanups = append(cleanups, func() { _ = redisCache.Close() })
		adapters.Cache = redisCache
	} else {
		memoryCache := cache.NewMemoryCache(time.Minute)
		cleanups = append(cleanups, memoryCache.StopGC)
		adapters.Cache = memoryCache
	}

	adapters.Broadcaster = wshub.NewHub(logger)
	return adapters, store, cleanup, nil
}

// loadChains loads active chains from the store and any chain documents
// from the chain directory. A chain that fails validation is logged and
// skipped; the worker still starts with the valid ones.
func loadChains(ctx context.Context, command *cli.Command, ruleEngine *engine.RuleEngine, store *sqlstore.Store, logger types.Logger) error {
	if store != nil {
		chains, err := store.LoadActiveChains(ctx)
		if err != nil {
			return err
		}
		for _, chain := range chains {
			if _, err = ruleEngine.AddChain(chain); err != nil {
				logger.Printf("E! %v", err)
			}
		}
	}
	chainDir := command.String("chain-dir")
	if chainDir == "" {
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(chainDir, "*.json"))
	if err != nil {
		return err
	}
	for _, path := range paths {
		def, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err = ruleEngine.LoadChain(def); err != nil {
			logger.Printf("E! load %s: %v", path, err)
		}
	}
	return nil
}

func loadScheduleSpecs(path string) ([]consumer.ScheduleSpec, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var specs []consumer.ScheduleSpec
	if err = json.Unmarshal(doc, &specs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return specs, nil
}

func startHttpServer(addr string, hub *wshub.Hub, logger types.Logger) *http.Server {
	router := httprouter.New()
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if hub != nil {
		router.GET("/ws/:room", hub.Handler())
	}
	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("E! http server: %v", err)
		}
	}()
	return server
}
