package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newQuestionsCommand(a *app) *cobra.Command {
	var (
		src sources
		out output
	)
	cmd := &cobra.Command{
		Use:   "questions [file]",
		Short: "Convert the question bank JSON to a PostgreSQL script",
		Long: `Questions reads a JSON array of questions, or a phpMyAdmin JSON export
holding the question_bank table, and writes a chunked script for
question_bank. Entries that cannot be read are logged and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src.questions = a.cfg.Dump.Questions
			if len(args) == 1 {
				src.questions = args[0]
			}
			if src.questions == "" {
				return errors.New("no questions file: pass one or set dump.questions")
			}
			src = src.withDefaults(a)
			res, err := a.build(cmd.Context(), src)
			if err != nil {
				return err
			}
			return out.write(a, res)
		},
	}
	src.registerFilter(cmd.Flags())
	out.register(cmd)
	return cmd
}

func newItemsCommand(a *app) *cobra.Command {
	var (
		src sources
		out output
	)
	cmd := &cobra.Command{
		Use:   "items [file]",
		Short: "Convert the items CSV to a PostgreSQL script",
		Long: `Items reads the items CSV (id, name, description, price, effect_type,
value, rarity, image) and writes a chunked script for the items table.
Non-numeric prices and values become NULL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src.items = a.cfg.Dump.Items
			if len(args) == 1 {
				src.items = args[0]
			}
			if src.items == "" {
				return errors.New("no items file: pass one or set dump.items")
			}
			src = src.withDefaults(a)
			res, err := a.build(cmd.Context(), src)
			if err != nil {
				return err
			}
			return out.write(a, res)
		},
	}
	src.registerFilter(cmd.Flags())
	out.register(cmd)
	return cmd
}

func newPullCommand(a *app) *cobra.Command {
	var (
		src sources
		out output
	)
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Read the live MySQL database and write PostgreSQL scripts",
		Long: `Pull connects to the MySQL database in the mysql section, reads every
known table (or those given with --table) and converts the rows exactly
like a dump. The password comes from the secret store (mysql_password).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src.mysql = true
			res, err := a.build(cmd.Context(), src.withDefaults(a))
			if err != nil {
				return err
			}
			return out.write(a, res)
		},
	}
	src.registerFilter(cmd.Flags())
	out.register(cmd)
	return cmd
}
