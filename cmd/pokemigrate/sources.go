package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/migrate"
	"github.com/Olivedu13/poke/pokemigrate/internal/seed"
	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// sources selects where rows come from. Any combination may be given; the
// scripts are merged and put in import order.
type sources struct {
	dump      string
	questions string
	items     string
	mysql     bool

	tables    []string
	chunkSize int
}

func (s *sources) register(flags *pflag.FlagSet) {
	flags.StringVar(&s.dump, "dump", "", "MySQL dump file (default dump.path)")
	flags.StringVar(&s.questions, "questions", "", "question bank JSON file")
	flags.StringVar(&s.items, "items", "", "items CSV file")
	flags.BoolVar(&s.mysql, "mysql", false, "read the tables from the live MySQL database")
	s.registerFilter(flags)
}

func (s *sources) registerFilter(flags *pflag.FlagSet) {
	flags.StringSliceVarP(&s.tables, "table", "t", nil, "only these tables (repeatable or comma separated)")
	flags.IntVar(&s.chunkSize, "chunk-size", 0, "rows per INSERT chunk (default import.chunk_size)")
}

// withDefaults fills unset options from the configuration. The configured
// input files are used only when no source was given on the command line.
func (s sources) withDefaults(a *app) sources {
	if s.chunkSize <= 0 {
		s.chunkSize = a.cfg.Import.ChunkSize
	}
	if s.empty() {
		s.dump = a.cfg.Dump.Path
		s.questions = a.cfg.Dump.Questions
		s.items = a.cfg.Dump.Items
	}
	return s
}

func (s sources) empty() bool {
	return s.dump == "" && s.questions == "" && s.items == "" && !s.mysql
}

// build converts every selected source and merges the results.
func (a *app) build(ctx context.Context, s sources) (*migrate.Result, error) {
	if s.empty() {
		return nil, errors.New("nothing to convert: give --dump, --questions, --items or --mysql")
	}
	opts := migrate.Options{Schema: a.schema, Tables: s.tables, ChunkSize: s.chunkSize}
	merged := &migrate.Result{RowErrors: make(map[string][]*transcode.RowError)}

	if s.dump != "" {
		res, err := convertFile(s.dump, func(f *os.File) (*migrate.Result, error) {
			return migrate.Convert(f, opts)
		})
		if err != nil {
			return nil, err
		}
		merge(merged, res)
	}

	if s.questions != "" {
		res, err := convertFile(s.questions, func(f *os.File) (*migrate.Result, error) {
			qs, err := seed.LoadQuestions(f)
			if err != nil && qs == nil {
				return nil, err
			}
			if err != nil {
				logger.Warning("Some questions were skipped", "file", s.questions, "error", err)
			}
			logger.Info("Questions loaded", "file", s.questions, "count", humanize.Comma(int64(len(qs))))
			return migrate.Questions(qs, opts)
		})
		if err != nil {
			return nil, err
		}
		merge(merged, res)
	}

	if s.items != "" {
		res, err := convertFile(s.items, func(f *os.File) (*migrate.Result, error) {
			items, err := seed.LoadItems(f)
			if err != nil {
				return nil, err
			}
			logger.Info("Items loaded", "file", s.items, "count", humanize.Comma(int64(len(items))))
			return migrate.Items(items, opts)
		})
		if err != nil {
			return nil, err
		}
		merge(merged, res)
	}

	if s.mysql {
		src, err := a.openMySQL(ctx)
		if err != nil {
			return nil, err
		}
		res, err := migrate.Pull(ctx, src, opts)
		src.Close()
		if err != nil {
			return nil, err
		}
		merge(merged, res)
	}

	migrate.SortScripts(a.schema, merged.Scripts)
	return merged, nil
}

func convertFile(path string, convert func(*os.File) (*migrate.Result, error)) (*migrate.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := convert(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func merge(dst, src *migrate.Result) {
	dst.Scripts = append(dst.Scripts, src.Scripts...)
	dst.Skipped = append(dst.Skipped, src.Skipped...)
	for table, errs := range src.RowErrors {
		dst.RowErrors[table] = append(dst.RowErrors[table], errs...)
	}
}

// summarize logs the conversion totals, and fails in strict mode when rows
// were left out.
func summarize(res *migrate.Result, strict bool) error {
	rows := 0
	for _, s := range res.Scripts {
		rows += s.Rows()
	}
	logger.Always("Conversion finished",
		"tables", len(res.Scripts),
		"rows", humanize.Comma(int64(rows)),
		"rejected", res.Rejected(),
		"skipped_tables", len(res.Skipped))
	if strict && res.Rejected() > 0 {
		return fmt.Errorf("%d rows rejected", res.Rejected())
	}
	return nil
}
