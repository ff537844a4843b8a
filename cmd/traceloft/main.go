// Copyright 2026 Traceloft Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/traceloft/traceloft"
	"github.com/traceloft/traceloft/codec"
	"github.com/traceloft/traceloft/config"
	"github.com/traceloft/traceloft/core"
	"github.com/traceloft/traceloft/engine"
	"github.com/traceloft/traceloft/ingress"
)

const shutdownGrace = 30 * time.Second

func main() {
	app := &cli.App{
		Name:  "traceloft",
		Usage: "Batching ingestion service for distributed-trace payloads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the ingestion service",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML configuration file",
					},
				},
			},
			{
				Name:      "inspect",
				Usage:     "Read one stored batch object and print its contents",
				Action:    inspectCommand,
				ArgsUsage: "<object-key>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML configuration file",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := traceloft.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           ingress.NewRouter(ingress.NewHandler(svc.Engine(), svc.Store(), slog.Default())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Listen, "backend", string(cfg.Storage.Backend))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Stop accepting new submissions first, then drain the pipeline so
	// in-flight entities reach storage before the store closes.
	grace, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(grace); err != nil {
		slog.Warn("http shutdown incomplete", "err", err)
	}
	if err := svc.Close(grace); err != nil {
		if errors.Is(err, engine.ErrShutdownTimeout) {
			counters := svc.Counters()
			slog.Error("drain timed out", "abandoned", counters.AbandonedOnShutdown)
		}
		return err
	}

	counters := svc.Counters()
	slog.Info("drained",
		"accepted", counters.Accepted,
		"entities_committed", counters.EntitiesCommitted,
		"entities_lost", counters.EntitiesLost)
	return nil
}

func inspectCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one object key argument")
	}
	key, err := core.ParseObjectKey(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid object key: %w", err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := traceloft.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage backend: %w", err)
	}
	defer func() {
		grace, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		svc.Close(grace)
	}()

	object, err := svc.Store().Read(c.Context, key, nil)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	entities, tag, err := codec.OpenObject(object)
	if err != nil {
		return fmt.Errorf("failed to decode object: %w", err)
	}

	fmt.Printf("key:      %s\n", key.String())
	fmt.Printf("codec:    %s\n", tag.String())
	fmt.Printf("size:     %d bytes\n", len(object))
	fmt.Printf("entities: %d\n", len(entities))
	for _, entity := range entities {
		fmt.Printf("  seq=%d received=%s attributes=%d\n",
			entity.Seq, entity.ReceivedAt.Format(time.RFC3339), len(entity.Attributes))
		for k, v := range entity.Attributes {
			fmt.Printf("    %s=%s\n", k, v)
		}
	}
	return nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	return cfg, cfg.Validate()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
