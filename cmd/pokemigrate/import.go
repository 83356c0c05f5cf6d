package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/migrate"
)

func newImportCommand(a *app) *cobra.Command {
	var (
		src    sources
		strict bool
		reset  bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert the sources and load them into PostgreSQL",
		Long: `Import converts the selected sources like convert does and runs the
chunks against PostgreSQL, table by table in foreign-key order. Each chunk
runs in its own transaction. Chunks recorded as applied in the ledger are
skipped, so an interrupted import can be run again. A failed chunk does not
stop the import; every failure is reported at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.Import.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, a.cfg.Import.Timeout)
				defer cancel()
			}

			res, err := a.build(ctx, src.withDefaults(a))
			if err != nil {
				return err
			}
			if err := summarize(res, strict); err != nil {
				return err
			}

			target, closeTarget, err := a.openTarget(ctx)
			if err != nil {
				return err
			}
			defer closeTarget()

			db, err := a.openLedger()
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			if db != nil {
				defer db.Close()
				if reset {
					for _, s := range res.Scripts {
						n, err := db.Forget(ctx, s.Table)
						if err != nil {
							return err
						}
						logger.Info("Ledger entries removed", "table", s.Table, "count", n)
					}
				}
			}

			reports, importErr := migrate.Import(ctx, target, ledger(db), res.Scripts)
			if err := printReports(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
			return importErr
		},
	}
	src.register(cmd.Flags())
	cmd.Flags().BoolVar(&strict, "strict", false, "do not load anything when a row is rejected")
	cmd.Flags().BoolVar(&reset, "reset", false, "forget the ledger entries of the imported tables first")
	return cmd
}

func printReports(w io.Writer, reports []migrate.TableReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TABLE\tCHUNKS\tAPPLIED\tSKIPPED\tFAILED\tROWS\tCOUNT\tMISSING\t")
	var applied, failed int
	for _, r := range reports {
		count := "?"
		if r.Count >= 0 {
			count = humanize.Comma(r.Count)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t%d\t\n",
			r.Table, r.Chunks, r.Applied, r.Skipped, r.Failed,
			humanize.Comma(int64(r.Rows)), count, r.Missing())
		applied += r.Applied
		failed += r.Failed
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	logger.Always("Import finished", "tables", len(reports), "applied", applied, "failed", failed)
	return nil
}
