package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/urfave/cli"

	"github.com/sandeepkv93/dosed/internal/config"
)

var configPath string

func Execute(args []string, out io.Writer) error {
	app := cli.App{
		Name:      "dosed",
		HelpName:  "dosed",
		Usage:     "medicine dose reminders in your terminal",
		UsageText: "dosed [--config FILE] <command> [arguments...]",
		Version:   version,
		Writer:    out,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:        "config, c",
				Usage:       "path to the YAML config file",
				Value:       config.DefaultConfigPath,
				EnvVar:      "DOSED_CONFIG",
				Destination: &configPath,
			},
		},
		Commands: []cli.Command{
			{
				Name:   "tui",
				Usage:  "open the interactive reminder board (default)",
				Action: runTUI,
			},
			{
				Name:   "due",
				Usage:  "list doses that are due or overdue right now",
				Action: due,
			},
			{
				Name:   "next",
				Usage:  "show the next dose for every active reminder",
				Action: next,
			},
			{
				Name:                   "add",
				Aliases:                []string{"a"},
				Usage:                  "add a reminder",
				UsageText:              "dosed add [--times HH:MM,HH:MM] [--frequency F] [--dose TEXT] <medicine name>",
				Action:                 add,
				Flags:                  addFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "list reminders",
				Action:  list,
				Flags:   listFlags,
			},
			{
				Name:      "take",
				Usage:     "record a dose as taken (or skipped/missed with --status)",
				UsageText: "dosed take [--status taken|skipped|missed] <reminder>",
				Action:    take,
				Flags:     takeFlags,
			},
			{
				Name:   "history",
				Usage:  "show recent intake records and a daily summary",
				Action: showHistory,
				Flags:  historyFlags,
			},
			{
				Name:   "mcp",
				Usage:  "serve reminder tools over MCP on stdio",
				Action: serveMCP,
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "prints the installed version",
				Action: func(ctx *cli.Context) error {
					fmt.Fprintf(ctx.App.Writer, "%s %s (%s_%s)\n", ctx.App.Name, ctx.App.Version, runtime.GOOS, runtime.GOARCH)
					return nil
				},
			},
		},
		Action:      runTUI,
		HideVersion: true,
	}
	return app.Run(args)
}
