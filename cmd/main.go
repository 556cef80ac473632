package main

import (
	"fmt"
	"os"

	"github.com/NgigiN/expenso/internal/config"
	"github.com/NgigiN/expenso/internal/export"
	"github.com/NgigiN/expenso/internal/logger"
	"github.com/NgigiN/expenso/internal/repository"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/viewmodel"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is built once per invocation by the root command.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	vm    *viewmodel.TransactionViewModel
	files afero.Fs
	dest  *export.FileDestinations
}

var (
	envFile string
	current *app
)

var rootCmd = &cobra.Command{
	Use:   "expenso",
	Short: "Track income and expenses in a local SQLite file",
	Long: `Expenso records income and expense transactions with a title, amount,
tag, date and note, reports totals and exports everything to CSV or XLSX.
It can also run as a Discord bot that imports pasted M-PESA messages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(envFile)
		if err != nil {
			return err
		}
		current = a
		cmd.SetContext(logger.WithContext(cmd.Context(), a.log))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file to load before reading EXPENSO_* variables")
	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, deleteCmd, exportCmd, summaryCmd, botCmd)
	// Runs after failed commands too, so the database is always released.
	cobra.OnFinalize(func() {
		if current == nil {
			return
		}
		if err := current.close(); err != nil {
			current.log.Error().Err(err).Msg("failed to close database")
		}
		current = nil
	})
}

func newApp(envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	db, err := storage.Init(cfg.DatabasePath, storage.WithLogger(log), storage.WithSQLLog(cfg.DatabaseLog))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the database: %w", err)
	}

	files := afero.NewOsFs()
	dest := export.NewFileDestinations(files, cfg.ExportDir)
	vm, err := viewmodel.New(repository.NewTransactionRepo(db), export.NewService(dest, log), db, log)
	if err != nil {
		storage.Shutdown()
		return nil, err
	}

	return &app{cfg: cfg, log: log, vm: vm, files: files, dest: dest}, nil
}

func (a *app) close() error {
	a.vm.Close()
	return storage.Shutdown()
}
