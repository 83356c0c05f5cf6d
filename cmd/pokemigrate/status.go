package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Olivedu13/poke/pokemigrate/internal/database"
	"github.com/Olivedu13/poke/pokemigrate/internal/migrate"
	"github.com/Olivedu13/poke/pokemigrate/internal/pgsql"
)

func newStatusCommand(a *app) *cobra.Command {
	var showLedger bool
	cmd := &cobra.Command{
		Use:   "status [table...]",
		Short: "Show row counts and sizes of the PostgreSQL tables",
		Long: `Status prints the row count and total size of each table, every known
table when none is given. With --ledger it lists the recorded chunk
imports instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tables := args
			if len(tables) == 0 {
				tables = a.schema.ImportOrder()
			}

			if showLedger {
				db, err := a.openLedger()
				if err != nil {
					return err
				}
				if db == nil {
					return fmt.Errorf("ledger driver is %q", a.cfg.Ledger.Driver)
				}
				defer db.Close()

				var records []database.ImportRecord
				for _, t := range tables {
					recs, err := db.Imports(ctx, t)
					if err != nil {
						return err
					}
					records = append(records, recs...)
				}
				return printLedger(cmd.OutOrStdout(), records)
			}

			target, closeTarget, err := a.openTarget(ctx)
			if err != nil {
				return err
			}
			defer closeTarget()

			statuses, err := migrate.Status(ctx, target, tables)
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), statuses)
		},
	}
	cmd.Flags().BoolVar(&showLedger, "ledger", false, "list recorded chunk imports")
	return cmd
}

func printStatus(w io.Writer, statuses []pgsql.TableStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS\tSIZE")
	var total int64
	for _, s := range statuses {
		if s.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t%v\n", s.Table, s.Err)
			continue
		}
		total += s.Rows
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Table, humanize.Comma(s.Rows), s.Size)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\n", humanize.Comma(total))
	return tw.Flush()
}

func printLedger(w io.Writer, records []database.ImportRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCHUNK\tROWS\tSTATUS\tRECORDED\tDETAIL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			r.Table, r.Chunk, r.Rows, r.Status, humanize.Time(r.RecordedAt), r.Detail)
	}
	return tw.Flush()
}
