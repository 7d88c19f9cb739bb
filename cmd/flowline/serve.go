package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mehdry/flowline"
	"github.com/mehdry/flowline/internal/logging"
	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/internal/scheduler"
	"github.com/mehdry/flowline/pkg/adapters/file"
	httpAdapter "github.com/mehdry/flowline/pkg/adapters/http"
	"github.com/mehdry/flowline/pkg/adapters/httpcall"
	"github.com/mehdry/flowline/pkg/adapters/memory"
	"github.com/mehdry/flowline/pkg/adapters/process"
	redisAdapter "github.com/mehdry/flowline/pkg/adapters/redis"
	"github.com/mehdry/flowline/pkg/observability"
	"github.com/mehdry/flowline/pkg/persistence/middleware"
	"github.com/mehdry/flowline/pkg/ports"
	"github.com/mehdry/flowline/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the flowline engine in server mode, exposing automation records, previews and live inbound handling over a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		// Fail fast on a malformed embedded API spec.
		if _, err := httpAdapter.Spec(cmd.Context()); err != nil {
			fmt.Printf("Error loading API spec: %v\n", err)
			os.Exit(1)
		}

		store, err := openStore(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer store.Close()

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		hooks := observability.Merge(metrics.Hooks(), observability.AuditHooks(logger))

		engineOpts := []runtime.EngineOption{
			runtime.WithLogger(logger),
			runtime.WithLifecycleHooks(hooks),
			runtime.WithHTTPCaller(httpcall.New()),
		}

		actionsPath, _ := cmd.Flags().GetString("actions")
		registry, err := process.LoadActions(actionsPath)
		if err != nil {
			fmt.Printf("Error loading actions config: %v\n", err)
			os.Exit(1)
		}
		if len(registry) > 0 {
			engineOpts = append(engineOpts, runtime.WithActionRunner(process.NewRunner(process.WithRegistry(registry))))
		}

		engine := runtime.NewEngine(engineOpts...)

		// Run state lives in Redis when an address is given, so multiple
		// instances can share suspended sessions; a state directory keeps
		// it on disk across restarts; otherwise in memory.
		stateDir, _ := cmd.Flags().GetString("state-dir")
		var runStore ports.RunStore
		managerOpts := []session.ManagerOption{session.WithManagerLogger(logger)}
		switch {
		case redisAddr != "":
			client := backend.NewClient(&backend.Options{Addr: redisAddr})
			runStore = redisAdapter.NewFromClient(client)
			managerOpts = append(managerOpts, session.WithLocker(redisAdapter.NewLocker(client, "flowline:lock:")))
		case stateDir != "":
			runStore = file.New(stateDir)
		default:
			runStore = memory.NewStore()
		}

		if keyB64, _ := cmd.Flags().GetString("state-key"); keyB64 != "" {
			key, err := base64.StdEncoding.DecodeString(keyB64)
			if err != nil || len(key) != 32 {
				fmt.Println("Error: --state-key must be a base64-encoded 32-byte key")
				os.Exit(1)
			}
			runStore = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(runStore)
		}
		if patterns, _ := cmd.Flags().GetStringSlice("mask"); len(patterns) > 0 {
			runStore = middleware.NewPIIMiddleware(patterns)(runStore)
		}

		timers := scheduler.New(scheduler.WithLogger(logger))
		defer timers.Close()

		svc := session.NewService(engine,
			session.NewManager(runStore, managerOpts...),
			session.WithScheduler(timers),
			session.WithServiceLogger(logger),
		)

		handler := httpAdapter.NewHandler(store, engine,
			httpAdapter.WithService(svc),
			httpAdapter.WithVersion(flowline.Version),
			httpAdapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Flowline Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Flowline Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for shared run state (host:port)")
	serveCmd.Flags().String("state-dir", "", "Directory for file-backed run state (ignored with --redis)")
	serveCmd.Flags().String("actions", "actions.yaml", "Path to the custom action registry")
	serveCmd.Flags().String("state-key", "", "Base64 AES-256 key for encrypting run state at rest")
	serveCmd.Flags().StringSlice("mask", nil, "Context key patterns to mask before persisting (regex)")
	serveCmd.Flags().Bool("debug", false, "Enable debug logging")
}
