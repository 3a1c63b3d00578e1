package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-shellwords"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/abshkbh/shoal/pkg/client"
	"github.com/abshkbh/shoal/pkg/command"
	"github.com/abshkbh/shoal/pkg/config"
)

var (
	commandClient *client.Client
)

// parseArgs turns CLI words into positional arguments. Words that are valid
// JSON are sent as JSON, everything else as a string.
func parseArgs(words []string) []any {
	args := make([]any, 0, len(words))
	for _, word := range words {
		if json.Valid([]byte(word)) {
			args = append(args, json.RawMessage(word))
			continue
		}
		args = append(args, word)
	}
	return args
}

// splitLine parses a shell style line into a command and its arguments.
func splitLine(line string) (command.Name, []any, error) {
	parser := shellwords.NewParser()
	words, err := parser.Parse(line)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse command line: %v", err)
	}
	if len(words) == 0 {
		return "", nil, fmt.Errorf("empty command line")
	}
	return command.Name(words[0]), parseArgs(words[1:]), nil
}

func run(ctx context.Context, name command.Name, args []any) error {
	result, err := commandClient.Execute(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}

	log.WithField("command", name).Debug("command succeeded")
	fmt.Println(string(result))
	return nil
}

func commands() []*cli.Command {
	var cmds []*cli.Command
	for _, name := range command.Registered() {
		name := name
		cmds = append(cmds, &cli.Command{
			Name:      string(name),
			Usage:     fmt.Sprintf("Execute the %s command", name),
			ArgsUsage: "[arguments...]",
			Action: func(ctx *cli.Context) error {
				return run(ctx.Context, name, parseArgs(ctx.Args().Slice()))
			},
		})
	}

	cmds = append(cmds, &cli.Command{
		Name:      "exec",
		Usage:     "Execute a command given as a single shell style line",
		ArgsUsage: "\"<command> [arguments...]\"",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("exec takes exactly one quoted command line")
			}
			name, args, err := splitLine(ctx.Args().First())
			if err != nil {
				return err
			}
			return run(ctx.Context, name, args)
		},
	})
	return cmds
}

func main() {
	app := &cli.App{
		Name:  "shoal-client",
		Usage: "Send commands to a shoal executor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Executor host, overrides the config file",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Executor port, overrides the config file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") {
				log.SetLevel(log.DebugLevel)
			}

			clientConfig, err := config.GetClientConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to get client config: %v", err)
			}
			if ctx.IsSet("host") {
				clientConfig.ServerHost = ctx.String("host")
			}
			if ctx.IsSet("port") {
				clientConfig.ServerPort = ctx.String("port")
			}
			log.Debugf("client config: %v", clientConfig)

			commandClient = client.New(*clientConfig)
			return nil
		},
		Commands: commands(),
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
