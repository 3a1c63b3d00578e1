package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/abshkbh/shoal/pkg/admin"
	"github.com/abshkbh/shoal/pkg/client"
	"github.com/abshkbh/shoal/pkg/config"
)

func runAdmin(ctx *cli.Context) error {
	configFile := ctx.String("config")
	adminConfig, err := config.GetAdminConfig(configFile)
	if err != nil {
		return fmt.Errorf("admin config not found: %v", err)
	}
	clientConfig, err := config.GetClientConfig(configFile)
	if err != nil {
		return fmt.Errorf("client config not found: %v", err)
	}

	if ctx.IsSet("host") {
		adminConfig.Host = ctx.String("host")
	}
	if ctx.IsSet("port") {
		adminConfig.Port = ctx.String("port")
	}
	if ctx.IsSet("quiet") {
		adminConfig.Quiet = ctx.Bool("quiet")
	}
	if ctx.IsSet("admin-html-file") {
		adminConfig.AdminHTMLFile = ctx.String("admin-html-file")
	}
	log.Infof("admin config: %v", adminConfig)
	log.Infof("client config: %v", clientConfig)

	adminServer, err := admin.New(client.New(*clientConfig), *adminConfig)
	if err != nil {
		return fmt.Errorf("failed to create admin server: %v", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = adminServer.Start(runCtx, admin.StartOptions{
		Host:  adminConfig.Host,
		Port:  adminConfig.Port,
		Quiet: adminConfig.Quiet,
	})
	if err != nil {
		return err
	}
	log.Println("Admin server stopped")
	return nil
}

func main() {
	app := &cli.App{
		Name:  "shoal-admin",
		Usage: "Web UI for checking status and triggering deploys on a shoal executor.",
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
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print the startup banner",
			},
			&cli.StringFlag{
				Name:  "admin-html-file",
				Usage: "Template to render instead of the bundled index page",
			},
		},
		Action: runAdmin,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.WithError(err).Fatal("admin exited with error")
	}
}
