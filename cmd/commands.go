package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/NgigiN/expenso/internal/category"
	"github.com/NgigiN/expenso/internal/discord"
	"github.com/NgigiN/expenso/internal/export"
	"github.com/NgigiN/expenso/internal/logger"
	"github.com/NgigiN/expenso/internal/repository"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/summary"
	"github.com/NgigiN/expenso/internal/validation"
	"github.com/NgigiN/expenso/internal/viewstate"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var addFlags struct {
	title, amount, txType, tag, date, note string
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a transaction",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date := addFlags.date
		if date == "" {
			date = time.Now().Format(validation.DateLayout)
		}
		if err := validation.ValidateDate(date); err != nil {
			return err
		}

		tx := storage.Transaction{
			Title:           addFlags.title,
			Amount:          validation.ParseAmount(addFlags.amount),
			TransactionType: addFlags.txType,
			Tag:             addFlags.tag,
			Date:            date,
			Note:            addFlags.note,
		}
		if err := current.vm.InsertTransaction(tx); err != nil {
			return err
		}
		if err := current.vm.Flush(cmd.Context()); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %s\n", tx.Title, summary.FormatUSD(decimal.NewFromFloat(tx.Amount)))
		return nil
	},
}

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := repository.ParseFilter(listFilter)
		if err != nil {
			return err
		}
		current.vm.SetFilter(filter)
		state, err := viewstate.Await(cmd.Context(), current.vm.List())
		if err != nil {
			return err
		}
		if state.Status == viewstate.Error {
			return state.Err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tTYPE\tTAG\tAMOUNT\tTITLE")
		for _, tx := range state.Data {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date, tx.TransactionType, tx.Tag, summary.FormatUSD(decimal.NewFromFloat(tx.Amount)), tx.Title)
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:      %d\n", tx.ID)
		fmt.Fprintf(out, "Title:   %s\n", tx.Title)
		fmt.Fprintf(out, "Amount:  %s\n", summary.FormatUSD(decimal.NewFromFloat(tx.Amount)))
		fmt.Fprintf(out, "Type:    %s\n", tx.TransactionType)
		fmt.Fprintf(out, "Tag:     %s (%s)\n", tx.Tag, category.Icon(tx.Tag))
		fmt.Fprintf(out, "Date:    %s\n", tx.Date)
		fmt.Fprintf(out, "Note:    %s\n", tx.Note)
		fmt.Fprintf(out, "Created: %s\n", time.UnixMilli(tx.CreatedAt).Format(time.RFC3339))
		return nil
	},
}

var editFlags struct {
	title, amount, txType, tag, date, note string
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		changed := 0
		set := func(name, value string, field *string) {
			if flags.Changed(name) {
				*field = value
				changed++
			}
		}
		set("title", editFlags.title, &tx.Title)
		set("type", editFlags.txType, &tx.TransactionType)
		set("tag", editFlags.tag, &tx.Tag)
		set("date", editFlags.date, &tx.Date)
		set("note", editFlags.note, &tx.Note)
		if flags.Changed("amount") {
			tx.Amount = validation.ParseAmount(editFlags.amount)
			changed++
		}
		if changed == 0 {
			return fmt.Errorf("nothing to change, pass at least one field flag")
		}
		if err := validation.ValidateDate(tx.Date); err != nil {
			return err
		}

		if err := current.vm.UpdateTransaction(tx); err != nil {
			return err
		}
		if err := current.vm.Flush(cmd.Context()); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d %s\n", tx.ID, tx.Title)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		if err := current.vm.DeleteTransaction(tx); err != nil {
			return err
		}
		if err := current.vm.Flush(cmd.Context()); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d %s\n", tx.ID, tx.Title)
		return nil
	},
}

func lookup(cmd *cobra.Command, arg string) (storage.Transaction, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return storage.Transaction{}, fmt.Errorf("invalid id %q", arg)
	}
	current.vm.GetByID(id)
	state, err := viewstate.Await(cmd.Context(), current.vm.Detail())
	if err != nil {
		return storage.Transaction{}, err
	}
	switch state.Status {
	case viewstate.Error:
		return storage.Transaction{}, state.Err
	case viewstate.Empty:
		return storage.Transaction{}, fmt.Errorf("no transaction with id %d", id)
	}
	return state.Data, nil
}

var exportFlags struct {
	format, out string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every transaction to the export directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFlags.format)
		if err != nil {
			return err
		}
		handle := exportFlags.out
		if handle == "" {
			handle = export.FileName(time.Now(), format)
		}

		current.vm.ExportTransactions(handle, format)
		state, err := viewstate.Await(cmd.Context(), current.vm.Export())
		if err != nil {
			return err
		}
		if state.Status == viewstate.Error {
			return state.Err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", current.dest.Path(state.Data))
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show income, expense and balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current.vm.Overall()
		state, err := viewstate.Await(cmd.Context(), current.vm.List())
		if err != nil {
			return err
		}
		if state.Status == viewstate.Error {
			return state.Err
		}

		t := current.vm.Totals()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Income:  %s\n", summary.FormatUSD(t.Income))
		fmt.Fprintf(out, "Expense: %s\n", summary.FormatUSD(t.Expense))
		fmt.Fprintf(out, "Balance: %s\n", summary.FormatUSD(t.Balance))
		fmt.Fprintf(out, "Count:   %d\n", t.Count)
		return nil
	},
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Discord bot and its health endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.FromContext(cmd.Context())
		bot, err := discord.NewBot(current.cfg, current.vm, current.files, current.dest, log)
		if err != nil {
			return fmt.Errorf("failed to initialize the discord bot: %w", err)
		}
		if err := bot.Start(); err != nil {
			return fmt.Errorf("failed to start bot: %w", err)
		}

		log.Info().Msg("bot is running")
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		defer stop()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		bot.Stop(shutdownCtx)
		log.Info().Msg("bot stopped")
		return nil
	},
}

func init() {
	f := addCmd.Flags()
	f.StringVar(&addFlags.title, "title", "", "transaction title")
	f.StringVar(&addFlags.amount, "amount", "", "amount, e.g. 12.50")
	f.StringVar(&addFlags.txType, "type", category.Expense, "Income or Expense")
	f.StringVar(&addFlags.tag, "tag", "", "category tag, e.g. Food")
	f.StringVar(&addFlags.date, "date", "", "date as dd/mm/yyyy, defaults to today")
	f.StringVar(&addFlags.note, "note", "", "note")

	f = editCmd.Flags()
	f.StringVar(&editFlags.title, "title", "", "new title")
	f.StringVar(&editFlags.amount, "amount", "", "new amount")
	f.StringVar(&editFlags.txType, "type", "", "new type, Income or Expense")
	f.StringVar(&editFlags.tag, "tag", "", "new tag")
	f.StringVar(&editFlags.date, "date", "", "new date as dd/mm/yyyy")
	f.StringVar(&editFlags.note, "note", "", "new note")

	listCmd.Flags().StringVar(&listFilter, "filter", string(repository.Overall), "overall, income or expense")

	exportCmd.Flags().StringVar(&exportFlags.format, "format", string(export.FormatCSV), "csv or xlsx")
	exportCmd.Flags().StringVar(&exportFlags.out, "out", "", "file name inside the export directory")
}
