package main

import (
	"context"
	"os"

	"github.com/gobuffalo/envy"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/aseprite-builder/aseprite-builder/config"
	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/models"
	"github.com/aseprite-builder/aseprite-builder/printer"
	"github.com/aseprite-builder/aseprite-builder/release"
)

// Fetches and extracts one asset of the latest release of any repository,
// the same way the installer fetches Skia and the Aseprite sources.
func main() {
	var verbose bool
	var project string
	var asset string
	var suffix string
	var dir string

	app := cli.NewApp()
	app.Name = "fetch-release"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "project, p",
			Usage:       "github url or owner/name",
			Destination: &project,
			Required:    true,
		}, cli.StringFlag{
			Name:        "asset",
			Usage:       "Exact asset name",
			Destination: &asset,
		}, cli.StringFlag{
			Name:        "suffix",
			Usage:       "Asset name suffix, used when no asset matches exactly",
			Value:       ".zip",
			Destination: &suffix,
		}, cli.StringFlag{
			Name:        "dir",
			Usage:       "Extraction directory",
			Value:       ".",
			Destination: &dir,
		}, cli.BoolFlag{
			Name:        "verbose",
			Usage:       "Full debug log",
			Destination: &verbose,
		},
	}

	app.Action = func(c *cli.Context) error {
		ctx := context.Background()

		if verbose {
			log.G(ctx).Logger.SetLevel(logrus.DebugLevel)
		}

		repo, err := models.ParseRepo(project)
		if err != nil {
			return err
		}

		f := release.NewFetcher(ctx, envy.Get(config.EnvToken, ""))
		rel, err := f.Fetch(ctx, release.Request{
			Repo:      repo,
			AssetName: asset,
			Suffix:    suffix,
			Dir:       dir,
		})
		if err != nil {
			return err
		}

		printer.Release(repo.String(), rel, dir)
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		log.L.Fatal(err)
	}
}
