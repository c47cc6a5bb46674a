package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/cache"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/database"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/providers/calendar"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/providers/mail"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/spreadsheet"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/application/services"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/clients/postgres"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/observability"
	"github.com/happyroy1004/ocs-patient-alert-sub000/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ocs-dispatch",
		Short:         "Match an OCS export against the registry and notify recipients",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(analysisCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one upload-match-dispatch cycle for a local file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			password, _ := cmd.Flags().GetString("password")
			recipients, _ := cmd.Flags().GetStringSlice("recipient")

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			req := entities.DispatchRequest{Mode: entities.DispatchModeAutomatic}
			if len(recipients) > 0 {
				req = entities.DispatchRequest{Mode: entities.DispatchModeManual, Recipients: recipients}
			}

			return withService(cmd.Context(), func(ctx context.Context, svc *services.OCSService) error {
				report, err := svc.Run(ctx, filepath.Base(file), data, password, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	cmd.Flags().String("file", "", "Path to the OCS export (.xlsx)")
	cmd.Flags().String("password", "", "Password for a protected export")
	cmd.Flags().StringSlice("recipient", nil, "Recipient to notify as user:<key> or doctor:<key> (repeatable); all matched recipients when omitted")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func analysisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analysis",
		Short: "Print the analysis stored by the latest upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *services.OCSService) error {
				record, err := svc.LatestAnalysis(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, record)
			})
		},
	}
}

// withService wires the OCS service against the configured database and
// transports. The CLI never caches uploads, so an in-memory cache suffices.
func withService(ctx context.Context, fn func(context.Context, *services.OCSService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	observability.InitLogger("ocs-dispatch", cfg.Env)

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	if err := database.InitSchema(ctx, pgClient); err != nil {
		return err
	}

	mailSender, err := mail.NewMailSender(cfg.SMTP)
	if err != nil {
		return err
	}
	summarizer, err := services.NewSummarizer(cfg.Clinic.AfternoonBoundary)
	if err != nil {
		return err
	}

	svc := services.NewOCSService(services.OCSServiceDeps{
		Loader:     spreadsheet.NewXLSXLoader(),
		Classifier: spreadsheet.NewNameClassifier(),
		Registry:   database.NewRegistryAdapter(pgClient),
		Analysis:   database.NewAnalysisAdapter(pgClient),
		Cache:      cache.NewMemoryAdapter(),
		Dispatcher: services.NewDispatcher(mailSender, calendar.NewGoogleProvider(cfg.Google), nil, nil, services.DispatcherConfig{
			Location:      cfg.Clinic.Location(),
			EventDuration: cfg.Clinic.EventDuration,
		}),
		Summarizer: summarizer,
	})

	log.Debug().Str("db", cfg.Database.Database).Msg("ocs service ready")
	return fn(ctx, svc)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
