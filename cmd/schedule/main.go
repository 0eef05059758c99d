// Command schedule generates, exports, and serves university course
// timetables: a two-phase constraint-satisfaction and local-search
// engine, fronted by the cobra subcommands below.
package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/deptsched/scheduler/internal/api"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/config"
	"github.com/deptsched/scheduler/internal/engine"
	"github.com/deptsched/scheduler/internal/export"
	"github.com/deptsched/scheduler/internal/result"
)

var (
	catalogDir string
	outPrefix  string
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cmdSchedule := &cobra.Command{
		Use:   "schedule",
		Short: "University course timetable generator",
		Long:  "A tool to generate conflict-free course timetables and optimize instructor/section preferences.",
	}
	cmdSchedule.PersistentFlags().StringVar(&catalogDir, "catalog", ".", "directory containing the six catalog CSV files")

	cmdSolve := &cobra.Command{
		Use:   "solve",
		Short: "run phase 1 and phase 2 and write the result",
		RunE:  runSolve,
	}
	cmdSolve.Flags().StringVar(&outPrefix, "out", "schedule", "output file prefix (.csv, .json, .pdf suffixes are added)")
	cmdSchedule.AddCommand(cmdSolve)

	cmdServe := &cobra.Command{
		Use:   "serve",
		Short: "solve once, then serve the result over the read-only query API",
		RunE:  runServe,
	}
	cmdSchedule.AddCommand(cmdServe)

	if err := cmdSchedule.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	cat, rr, err := engine.Run(context.Background(), engine.Options{CatalogDir: catalogDir, Config: cfg})
	if err != nil {
		return errors.Wrap(err, "solve")
	}

	if err := writeExports(cat, rr, outPrefix); err != nil {
		return err
	}

	log.Info().
		Int("cost_before", rr.CostBeforeOptimize.Total).
		Int("cost_after", rr.CostAfterOptimize.Total).
		Msg("solve complete")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	store := api.NewStore()
	hub := api.NewProgressHub()

	go func() {
		cat, rr, err := engine.Run(context.Background(), engine.Options{
			CatalogDir: catalogDir,
			Config:     cfg,
			OnProgress: store.OnProgress(hub),
		})
		if err != nil {
			log.Error().Err(err).Msg("solve failed")
			return
		}
		store.Set(cat, rr)
		hub.Close()
	}()

	router := api.NewRouter(store, hub, cfg.CORSAllowedOrigins)
	log.Info().Str("addr", cfg.HTTPAddr).Msg("serving query api")
	return router.Run(cfg.HTTPAddr)
}

func writeExports(cat *catalog.Catalog, rr *result.RunResult, prefix string) error {
	csvFile, err := os.Create(prefix + ".csv")
	if err != nil {
		return errors.Wrapf(err, "create %s.csv", prefix)
	}
	defer csvFile.Close()
	if err := export.WriteCSV(csvFile, cat, rr.Assignments); err != nil {
		return errors.Wrapf(err, "write %s.csv", prefix)
	}

	jsonFile, err := os.Create(prefix + ".json")
	if err != nil {
		return errors.Wrapf(err, "create %s.json", prefix)
	}
	defer jsonFile.Close()
	if err := export.WriteJSON(jsonFile, cat, rr); err != nil {
		return errors.Wrapf(err, "write %s.json", prefix)
	}

	pdfFile, err := os.Create(prefix + ".pdf")
	if err != nil {
		return errors.Wrapf(err, "create %s.pdf", prefix)
	}
	defer pdfFile.Close()
	if err := export.WritePDF(pdfFile, cat, rr.Assignments); err != nil {
		return errors.Wrapf(err, "write %s.pdf", prefix)
	}

	return nil
}
