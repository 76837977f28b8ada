package main

import (
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"

	"github.com/jupiterclapton/cenackle/services/blog-service/config"
	"github.com/jupiterclapton/cenackle/services/blog-service/pkg/logger"
)

const serviceName = "blog-service"

func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "stories, posts and feeds for the blog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				EnvVars: []string{"APP_ENV"},
				Value:   "local",
				Usage:   "local ou prod (format des logs, cookies Secure)",
			},
		},
		Before: func(c *cli.Context) error {
			logger.Init(c.String("env"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP API and the story purger",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "migrate",
						EnvVars: []string{"MIGRATE_ON_START"},
						Value:   true,
						Usage:   "apply pending migrations before serving",
					},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: migrateCmd,
			},
			{
				Name:   "purge",
				Usage:  "delete expired stories once and exit",
				Action: purgeCmd,
			},
		},
		ErrWriter: os.Stderr,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("💥 Command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	// Le flag global l'emporte sur APP_ENV lu par config
	cfg.Env = c.String("env")
	return cfg, nil
}
