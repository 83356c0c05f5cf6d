package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/migrate"
)

func newExtractCommand(a *app) *cobra.Command {
	var (
		dir          string
		tables       []string
		keepLiterals bool
		fixBooleans  bool
	)
	cmd := &cobra.Command{
		Use:   "extract [dump]",
		Short: "Split a MySQL dump into one PostgreSQL INSERT file per table",
		Long: `Extract copies the INSERT statements of a dump into inserts_<table>.sql
files with backquoted identifiers turned into double-quoted ones and MySQL
string escapes rewritten for PostgreSQL. It does not check values against
the table definitions; use convert for that.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Dump.Path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no dump file: pass one or set dump.path")
			}
			if dir == "" {
				dir = a.cfg.Dump.OutputDir
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			opts := migrate.ExtractOptions{KeepLiterals: keepLiterals, Tables: tables}
			if fixBooleans {
				opts.Schema = a.schema
			}
			summaries, rowErrs, err := migrate.Extract(f, dir, opts)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tINSERTS\tROWS\tFILE")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Table, s.Inserts, humanize.Comma(int64(s.Rows)), s.File)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			logger.Always("Extraction finished", "tables", len(summaries), "dir", dir, "row_problems", len(rowErrs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "out", "o", "", "directory for the per-table files (default dump.output_dir)")
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "only these tables")
	cmd.Flags().BoolVar(&keepLiterals, "keep-literals", false, "copy string literals unchanged, convert identifiers only")
	cmd.Flags().BoolVar(&fixBooleans, "fix-booleans", true, "write 0/1 in boolean columns as FALSE/TRUE")
	return cmd
}
