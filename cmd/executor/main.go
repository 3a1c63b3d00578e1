package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/abshkbh/shoal/pkg/config"
	"github.com/abshkbh/shoal/pkg/executor"
)

func runExecutor(ctx *cli.Context) error {
	executorConfig, err := config.GetExecutorConfig(ctx.String("config"))
	if err != nil {
		return fmt.Errorf("executor config not found: %v", err)
	}
	if ctx.IsSet("host") {
		executorConfig.Host = ctx.String("host")
	}
	if ctx.IsSet("port") {
		executorConfig.Port = ctx.String("port")
	}
	log.Infof("executor config: %v", executorConfig)

	demo := executor.NewDemo()
	if ctx.IsSet("status") {
		demo.SetStatus(ctx.String("status"))
	}
	e, err := executor.New(demo.Handlers())
	if err != nil {
		return fmt.Errorf("failed to create executor: %v", err)
	}

	addr := net.JoinHostPort(executorConfig.Host, executorConfig.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Executor listening on: %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start executor: %v", err)
		}
	}()
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnf("Failed to notify systemd of readiness: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down executor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("executor shutdown failed: %v", err)
	}
	log.Println("Executor stopped")
	return nil
}

func main() {
	app := &cli.App{
		Name:  "shoal-executor",
		Usage: "In-memory command executor for developing against the shoal client and admin UI.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "./config.yaml",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Status reported by the status command, \"ok\" means healthy",
			},
		},
		Action: runExecutor,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.WithError(err).Fatal("executor exited with error")
	}
}
