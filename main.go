// main.go
//
// puzzletrack: Discord word-puzzle score tracker.
// Commands:
//   collect - walk the channel history and store every message's record
//   update  - incremental pass from the stored watermark
//   export  - merge the store into a CSV file (historical layout)
//   serve   - HTTP API + periodic background refresh
//   chart   - render an author's score history to PNG
//   token   - mint an admin token for POST /api/refresh

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/robalobadob/puzzletrack/internal/chart"
	"github.com/robalobadob/puzzletrack/internal/collector"
	"github.com/robalobadob/puzzletrack/internal/discord"
	"github.com/robalobadob/puzzletrack/internal/httpserver"
	"github.com/robalobadob/puzzletrack/internal/records"
	"github.com/robalobadob/puzzletrack/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	app := &cli.App{
		Name:  "puzzletrack",
		Usage: "track word-puzzle scores shared in a Discord channel",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "puzzletrack.yaml", Usage: "path to config file"},
		},
		Commands: []*cli.Command{
			collectCommand(),
			updateCommand(),
			exportCommand(),
			serveCommand(),
			chartCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("puzzletrack exited")
	}
}

func collectCommand() *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "walk the channel history and store parsed records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "since", Usage: "stop at this date (YYYY-MM-DD)"},
			&cli.IntFlag{Name: "max", Usage: "override max messages to fetch"},
		},
		Action: func(c *cli.Context) error {
			_, db, col, err := setupCollector(c)
			if err != nil {
				return err
			}
			defer db.Close()

			if n := c.Int("max"); n > 0 {
				col.MaxMessages = n
			}
			var since time.Time
			if s := c.String("since"); s != "" {
				since, err = time.Parse("2006-01-02", s)
				if err != nil {
					return fmt.Errorf("bad --since %q: %w", s, err)
				}
			}

			_, err = col.Collect(c.Context, since)
			return err
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "incremental pass from the newest stored message",
		Action: func(c *cli.Context) error {
			_, db, col, err := setupCollector(c)
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = col.Update(c.Context)
			return err
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "merge stored records into a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "data.csv", Usage: "output CSV path"},
			&cli.IntFlag{Name: "limit", Value: 1 << 20, Usage: "max records to export"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := store.New(db).Query(c.Context, "", "", c.Int("limit"))
			if err != nil {
				return err
			}

			out := c.String("out")
			old, err := records.ReadFile(out)
			if err != nil {
				return fmt.Errorf("read existing export: %w", err)
			}
			merged := records.Merge(old, rows)
			if err := records.WriteFile(out, merged); err != nil {
				return err
			}
			log.Info().Str("path", out).Int("rows", len(merged)).Msg("export written")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the HTTP API (with periodic background refresh)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "override listen address"},
		},
		Action: func(c *cli.Context) error {
			cfg, db, col, err := setupCollector(c)
			if err != nil {
				return err
			}
			defer db.Close()

			srv := httpserver.New(store.New(db), col, cfg.JWT.Secret)

			if iv := cfg.HTTP.RefreshInterval; iv > 0 {
				go refreshLoop(c.Context, col, iv)
			}

			addr := cfg.HTTP.Addr
			if a := c.String("addr"); a != "" {
				addr = a
			}
			log.Info().Str("addr", addr).Msg("starting puzzletrack api")
			return srv.Start(addr)
		},
	}
}

// refreshLoop runs incremental updates until ctx is done.
func refreshLoop(ctx context.Context, col *collector.Collector, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := col.Update(ctx); err != nil {
				log.Warn().Err(err).Msg("background refresh failed")
			}
		}
	}
}

func chartCommand() *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "render an author's score history to PNG",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "game", Required: true},
			&cli.StringFlag{Name: "author", Required: true},
			&cli.StringFlag{Name: "out", Value: "chart.png"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			points, err := store.New(db).Series(c.Context, c.String("game"), c.String("author"))
			if err != nil {
				return err
			}
			png, err := chart.ScoreHistory(points, c.String("author")+" / "+c.String("game"))
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.String("out"), png, 0o644); err != nil {
				return err
			}
			log.Info().Str("path", c.String("out")).Int("points", len(points)).Msg("chart written")
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint an admin token for POST /api/refresh",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			cfg, err := LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("jwt secret not configured (JWT_SECRET or jwt.secret)")
			}
			tok, err := httpserver.SignAdminToken(cfg.JWT.Secret, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
}

// setupCollector loads config, opens the database, and wires the collector.
func setupCollector(c *cli.Context) (*Config, *sql.DB, *collector.Collector, error) {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Discord.Token == "" || cfg.Discord.ChannelID == "" {
		return nil, nil, nil, fmt.Errorf("discord token and channel id required (config, env, or tokens file)")
	}

	db, err := store.Open(cfg.DB.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	col := collector.New(discord.NewClient(cfg.Discord.Token), store.New(db), cfg.Discord.ChannelID)
	col.PageLimit = cfg.Discord.PageLimit
	col.MaxMessages = cfg.Discord.MaxMessages
	return cfg, db, col, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
