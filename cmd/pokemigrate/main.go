// Command pokemigrate moves the poke MySQL data into PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Olivedu13/poke/pokemigrate/internal/config"
	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/schema"
	"github.com/Olivedu13/poke/pokemigrate/internal/secret"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	schemaFile string

	cfg     *config.Config
	schema  *schema.Schema
	secrets secret.Store
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pokemigrate",
		Short: "Convert the poke MySQL data to PostgreSQL and load it",
		Long: `pokemigrate reads a MySQL dump, the question bank and item seed files,
or the live MySQL database, and turns them into chunked PostgreSQL scripts.
The scripts can be written to disk or loaded into PostgreSQL, either directly
or through psql on a remote host reached over SSH.

Passwords are never read from the configuration file. They come from
POKEMIGRATE_<KEY> environment variables, from files in secrets_dir, or from
a terminal prompt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.DefaultPath, "path to the pokemigrate YAML configuration")
	flags.StringVar(&a.logLevel, "log-level", "", "override the log level (DEBUG, INFO, WARNING, ERROR)")
	flags.StringVar(&a.schemaFile, "schema", "", "schema override file (default from schema_file)")

	root.AddCommand(
		newExtractCommand(a),
		newConvertCommand(a),
		newQuestionsCommand(a),
		newItemsCommand(a),
		newPullCommand(a),
		newImportCommand(a),
		newStatusCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	logConfig, _ := logger.LoadConfig(a.configPath)
	if a.logLevel != "" {
		logConfig.Level = a.logLevel
	}
	if err := logger.Initialize(logConfig); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	schemaFile := cfg.SchemaFile
	if cmd.Flags().Changed("schema") {
		schemaFile = a.schemaFile
	}
	if a.schema, err = schema.Load(schemaFile); err != nil {
		return err
	}

	a.secrets = secret.Default(cfg.SecretsDir)
	logger.Debug("Configuration loaded", "config", a.configPath, "schema", schemaFile, "command", cmd.Name())
	return nil
}
