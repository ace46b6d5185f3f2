package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v2"

	"github.com/yussieik/polyextract/internal/bars"
	"github.com/yussieik/polyextract/internal/config"
	"github.com/yussieik/polyextract/internal/export"
	"github.com/yussieik/polyextract/internal/httpapi"
	"github.com/yussieik/polyextract/internal/polygon"
	"github.com/yussieik/polyextract/internal/ratelimit"
	"github.com/yussieik/polyextract/internal/storage"
	"github.com/yussieik/polyextract/internal/ticker"
)

func main() {
	app := &cli.App{
		Name:  "polyextract",
		Usage: "fetch, clean, and export equity minute bars",
		Commands: []*cli.Command{
			extractCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "fetch and clean bars for one or more tickers over a date range",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tickers", Required: true, Usage: "comma-separated tickers, e.g. AAPL,MSFT"},
			&cli.StringFlag{Name: "start", Required: true, Usage: "YYYY-MM-DD"},
			&cli.StringFlag{Name: "end", Required: true, Usage: "YYYY-MM-DD"},
			&cli.StringFlag{Name: "resolution", Value: "minute"},
			&cli.IntFlag{Name: "multiplier", Value: 1},
			&cli.StringFlag{Name: "out", Value: "out", Usage: "output directory for CSV files"},
		},
		Action: runExtract,
	}
}

func runExtract(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", c.String("start"))
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.String("end"))
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	jobs := make([]bars.Job, 0)
	for _, t := range strings.Split(c.String("tickers"), ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		job, err := bars.NewJob(t, start, end, bars.Resolution(c.String("resolution")), c.Int("multiplier"))
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
	}

	limiter := ratelimit.New(cfg.RequestsPerSecond, cfg.MaxBurstRequests)
	session := polygon.NewHttpSession(cfg.PolygonAPIKey, limiter)
	pipeline := ticker.NewPipeline(session, bars.Eastern, 8)

	ctx := context.Background()
	results := pipeline.ProcessAll(ctx, jobs)

	var repo *storage.Repository
	if cfg.DatabaseURL != "" {
		if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Printf("warning: could not run migrations: %v", err)
		}
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("warning: could not connect to database: %v", err)
		} else {
			defer pool.Close()
			repo = storage.NewRepository(pool)
		}
	}

	outDir := c.String("out")
	for _, r := range results {
		if r.Err != nil {
			log.Printf("ticker %s failed: %v", r.Ticker, r.Err)
			continue
		}
		log.Printf("ticker %s: %d rows, %d p1 outliers, %d p2 outliers", r.Ticker, len(r.Frame.Rows), r.P1Outliers, r.P2Outliers)

		if err := export.WriteCSV(&r.Frame, r.Ticker, outDir); err != nil {
			log.Printf("ticker %s: writing CSV: %v", r.Ticker, err)
		}
		if repo != nil {
			if _, err := repo.UpsertFrame(ctx, &r.Frame); err != nil {
				log.Printf("ticker %s: persisting: %v", r.Ticker, err)
			}
		}
	}

	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the admin HTTP surface for POSTing extraction jobs",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			limiter := ratelimit.New(cfg.RequestsPerSecond, cfg.MaxBurstRequests)
			session := polygon.NewHttpSession(cfg.PolygonAPIKey, limiter)
			pipeline := ticker.NewPipeline(session, bars.Eastern, 8)

			ctx := context.Background()
			var repo *storage.Repository
			if cfg.DatabaseURL != "" {
				if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
					log.Printf("warning: could not run migrations: %v", err)
				}
				pool, err := storage.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					log.Printf("warning: could not connect to database: %v", err)
				} else {
					defer pool.Close()
					repo = storage.NewRepository(pool)
				}
			}

			handler := httpapi.NewHandler(pipeline, repo, "out")

			e := echo.New()
			e.Use(middleware.Recover())
			e.Use(middleware.Logger())

			e.GET("/health", handler.Health)
			admin := e.Group("/admin")
			admin.POST("/extract", handler.Extract)
			admin.GET("/extract/status", handler.ExtractStatus)

			log.Printf("starting server on :%s", cfg.Port)
			return e.Start(":" + cfg.Port)
		},
	}
}
