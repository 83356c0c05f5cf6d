package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/migrate"
)

// output is shared by the commands that write PostgreSQL scripts.
type output struct {
	dir    string
	strict bool
}

func (o *output) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dir, "out", "o", "", "directory for the generated scripts (default dump.scripts_dir)")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "exit with an error when any row is rejected")
}

// write saves the scripts and logs the totals.
func (o output) write(a *app, res *migrate.Result) error {
	dir := o.dir
	if dir == "" {
		dir = a.cfg.Dump.ScriptsDir
	}
	paths, err := migrate.WriteScripts(dir, res.Scripts)
	if err != nil {
		return err
	}
	logger.Info("Scripts written", "dir", dir, "files", len(paths))
	return summarize(res, o.strict)
}

func newConvertCommand(a *app) *cobra.Command {
	var (
		src sources
		out output
	)
	cmd := &cobra.Command{
		Use:   "convert [dump]",
		Short: "Convert a MySQL dump and seed files to chunked PostgreSQL scripts",
		Long: `Convert parses the INSERT statements of a MySQL dump, checks every value
against the table definitions and writes one script per table, numbered in
foreign-key order. Rows that do not fit are logged with their original text
and left out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if src.dump != "" {
					return fmt.Errorf("dump given twice: %q and --dump %q", args[0], src.dump)
				}
				src.dump = args[0]
			}
			res, err := a.build(cmd.Context(), src.withDefaults(a))
			if err != nil {
				return err
			}
			return out.write(a, res)
		},
	}
	src.register(cmd.Flags())
	out.register(cmd)
	return cmd
}
