package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/agrolingo/internal/cli"
	"horse.fit/agrolingo/internal/httpapi"
)

const startupProbeTimeout = 15 * time.Second

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8090, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	maxBatch := fs.Int("max-batch", 100, "Maximum texts per batch request")
	skipProbe := fs.Bool("skip-probe", false, "Do not probe the remote translation API at startup")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := loadRuntime(ctx, envLoader, runtimeOptions{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	if !*skipProbe {
		go func() {
			probeCtx, probeCancel := context.WithTimeout(ctx, startupProbeTimeout)
			defer probeCancel()
			if err := rt.service.Probe(probeCtx); err != nil {
				rt.logger.Warn().Err(err).Msg("remote translation probe failed; local tiers still serve requests")
				return
			}
			rt.logger.Info().Msg("remote translation probe succeeded")
		}()
	}

	srv := httpapi.NewServer(rt.service, rt.logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		AllowOrigins:    rt.cfg.CORSAllowedOriginsList(),
		MaxBatchSize:    *maxBatch,
	})

	if err := srv.Start(ctx); err != nil {
		rt.logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
