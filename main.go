package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/aseprite-builder/aseprite-builder/config"
	"github.com/aseprite-builder/aseprite-builder/installer"
	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/models"
	"github.com/aseprite-builder/aseprite-builder/platform"
	"github.com/aseprite-builder/aseprite-builder/printer"
	"github.com/aseprite-builder/aseprite-builder/recipe"
	"github.com/aseprite-builder/aseprite-builder/release"
	"github.com/aseprite-builder/aseprite-builder/runner"
)

func main() {
	var verbose bool
	var configPath string
	var recipePath string
	var logLevel string
	var logFile string

	app := cli.NewApp()
	app.Name = "aseprite-builder"
	app.Usage = "Build and install Aseprite from source"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config",
			Usage:       "YAML config file (defaults to $" + config.EnvConfig + ")",
			Destination: &configPath,
		}, cli.StringFlag{
			Name:        "recipe",
			Usage:       "Lua build recipe overriding the built-in one",
			Destination: &recipePath,
		}, cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level",
			Value:       "info",
			Destination: &logLevel,
		}, cli.StringFlag{
			Name:        "log-file",
			Usage:       "Log to a rotated file instead of the console",
			Value:       "console",
			Destination: &logFile,
		}, cli.BoolFlag{
			Name:        "verbose",
			Usage:       "Full debug log",
			Destination: &verbose,
		},
	}

	setup := func(ctx context.Context) (*installer.Installer, error) {
		if err := log.Init(logLevel, logFile); err != nil {
			return nil, err
		}
		if verbose {
			log.L.Logger.SetLevel(logrus.DebugLevel)
		}

		home, err := platform.HomeDir()
		if err != nil {
			return nil, err
		}
		cfg, err := config.Load(configPath, home)
		if err != nil {
			return nil, err
		}
		if recipePath == "" {
			recipePath = cfg.Recipe
		}
		rec, err := loadRecipe(recipePath)
		if err != nil {
			return nil, err
		}
		info, err := platform.Detect(ctx)
		if err != nil {
			return nil, err
		}
		log.G(ctx).Debugf("Detected %s", info)

		r := &runner.Exec{Root: platform.IsRoot()}
		return installer.New(cfg, rec, info, r, release.NewFetcher(ctx, cfg.GithubToken)), nil
	}

	command := func(run func(*installer.Installer, context.Context) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			ctx := context.Background()
			i, err := setup(ctx)
			if err != nil {
				return err
			}
			return run(i, ctx)
		}
	}

	app.Commands = []cli.Command{
		{
			Name:   "install",
			Usage:  "Build Aseprite from the latest release and install it",
			Action: command((*installer.Installer).Install),
		},
		{
			Name:   "uninstall",
			Usage:  "Remove an installed Aseprite (run as root)",
			Action: command((*installer.Installer).Uninstall),
		},
		{
			Name:   "update",
			Usage:  "Uninstall, then install the latest release",
			Action: command((*installer.Installer).Update),
		},
		{
			Name:  "status",
			Usage: "Compare the installed release with the latest one",
			Action: command(func(i *installer.Installer, ctx context.Context) error {
				s, err := i.Status(ctx)
				if err != nil {
					return err
				}
				printer.Table([]*models.Installation{s})
				return nil
			}),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.L.Fatal(err)
	}
}

func loadRecipe(path string) (*recipe.Recipe, error) {
	if path == "" {
		return recipe.Default()
	}
	return recipe.Load(path)
}
