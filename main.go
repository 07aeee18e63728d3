package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"jurimetria/adapters/datajud"
	"jurimetria/adapters/excel"
	"jurimetria/adapters/postgres"
	"jurimetria/api"
	"jurimetria/app"
	"jurimetria/domain/classify"
	"jurimetria/domain/core"
	"jurimetria/domain/inference"
	"jurimetria/internal/config"
	"jurimetria/internal/errors"
	"jurimetria/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "jurimetria",
		Short: "Jurimetrics pipeline over the DataJud public API",
		Long: `Fetches judicial processes from the DataJud public API, classifies
urgency relief and settlement signals from the movement log, and runs the
statistical inference battery (Wilson intervals, Fisher exact test,
Kaplan-Meier survival curve).`,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		output     string
		maxRecords int
		filedFrom  string
		filedTo    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, classify and analyze processes end to end",
		Long: `Run the full pipeline: fetch processes from DataJud, derive the legal
signal table, run the inference battery and export the report workbook.

With DATABASE_URL set the run is persisted and can be re-analyzed later.

Example: jurimetria run --from 2020-01-01 --max-records 5000 -o relatorio.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if maxRecords > 0 {
				cfg.Analysis.MaxRecords = maxRecords
			}

			query, err := buildQuery(cfg, filedFrom, filedTo)
			if err != nil {
				return err
			}

			service, db, err := buildService(cfg, true)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			report, err := service.Run(cmd.Context(), query, cfg.Analysis.Alpha)
			if err != nil {
				return err
			}

			printSummary(report)

			if output == "" {
				output = cfg.Export.OutputPath
			}
			if err := excel.NewReportWriter().Write(output, report); err != nil {
				return err
			}
			fmt.Printf("\nReport written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output workbook path (default from OUTPUT_FILE)")
	cmd.Flags().IntVar(&maxRecords, "max-records", 0, "Cap on fetched processes (default from MAX_RECORDS)")
	cmd.Flags().StringVar(&filedFrom, "from", "", "Earliest filing date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filedTo, "to", "", "Latest filing date, YYYY-MM-DD")

	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Re-run the inference battery over a persisted run",
		Long: `Recompute summaries, intervals, the Fisher exact test and the survival
curve from a stored run without refetching from DataJud.

Example: jurimetria analyze --run-id 0189f0a2-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			service, db, err := buildService(cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := service.AnalyzeStored(cmd.Context(), core.RunID(runID), cfg.Analysis.Alpha)
			if err != nil {
				return err
			}

			printSummary(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run to analyze (default: latest)")

	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		runID  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a persisted run as an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			service, db, err := buildService(cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := service.AnalyzeStored(cmd.Context(), core.RunID(runID), cfg.Analysis.Alpha)
			if err != nil {
				return err
			}

			if output == "" {
				output = cfg.Export.OutputPath
			}
			if err := excel.NewReportWriter().Write(output, report); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run to export (default: latest)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output workbook path (default from OUTPUT_FILE)")

	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest analysis over HTTP",
		Long: `Start the API server. With a persisted run available the latest report
is loaded on startup; POST /api/refresh recomputes it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			service, db, err := buildService(cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			server := api.NewServer(service, cfg.Analysis.Alpha)

			// Best effort preload; the server starts empty when no run exists yet
			if report, err := service.AnalyzeStored(cmd.Context(), "", cfg.Analysis.Alpha); err == nil {
				server.SetReport(report)
			} else {
				log.Printf("no stored report loaded: %v", err)
			}

			return server.Start(cfg.Server.Port)
		},
	}

	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the run ledger schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := connectDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}

	return cmd
}

// buildService wires the pipeline service from configuration. With
// withSource false the DataJud client is skipped and a database is required,
// since the service can then only work over persisted runs.
func buildService(cfg *config.Config, withSource bool) (*app.AnalysisService, *sqlx.DB, error) {
	rules, err := buildRules(cfg)
	if err != nil {
		return nil, nil, err
	}

	var source ports.ProcessSource
	if withSource {
		client, err := datajud.NewClient(datajud.Config{
			BaseURL:           cfg.DataJud.BaseURL,
			APIKey:            cfg.DataJud.APIKey,
			Tribunal:          cfg.DataJud.Tribunal,
			PageSize:          cfg.DataJud.PageSize,
			MaxPages:          cfg.DataJud.MaxPages,
			RequestsPerMinute: cfg.DataJud.RequestsPerMinute,
			Timeout:           cfg.DataJud.Timeout,
			MaxRetries:        cfg.DataJud.MaxRetries,
		})
		if err != nil {
			return nil, nil, err
		}
		source = client
	}

	var (
		repo ports.ProcessRepository
		db   *sqlx.DB
	)
	if cfg.Database.URL != "" {
		db, err = connectDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(context.Background(), db); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo = postgres.NewProcessRepository(db)
	} else if !withSource {
		return nil, nil, errors.ConfigInvalid("DATABASE_URL is required for this command")
	}

	return app.NewAnalysisService(source, repo, rules), db, nil
}

func connectDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

func buildRules(cfg *config.Config) (*classify.Rules, error) {
	set := classify.DefaultRuleSet()
	if cfg.Analysis.RulesFile != "" {
		if err := config.LoadRulesJSON(cfg.Analysis.RulesFile, &set); err != nil {
			return nil, err
		}
	}
	return classify.NewRules(set)
}

func buildQuery(cfg *config.Config, filedFrom, filedTo string) (ports.ProcessQuery, error) {
	query := ports.ProcessQuery{
		SubjectCodes: cfg.Analysis.SubjectCodes,
		ClassCode:    cfg.Analysis.ClassCode,
		MaxRecords:   cfg.Analysis.MaxRecords,
	}
	if filedFrom != "" {
		t, err := time.Parse("2006-01-02", filedFrom)
		if err != nil {
			return query, fmt.Errorf("invalid --from date (use YYYY-MM-DD): %w", err)
		}
		query.FiledFrom = t
	}
	if filedTo != "" {
		t, err := time.Parse("2006-01-02", filedTo)
		if err != nil {
			return query, fmt.Errorf("invalid --to date (use YYYY-MM-DD): %w", err)
		}
		query.FiledTo = t
	}
	return query, nil
}

func printSummary(report *inference.Report) {
	s := report.Summary

	fmt.Printf("\n=== RESUMO DA ANALISE ===\n")
	fmt.Printf("Run: %s\n", report.RunID)
	fmt.Printf("Processos: %d\n", s.TotalProcesses)
	fmt.Printf("Com tutela:  %d  %s\n", s.WithRelief, formatCI(s.ReliefRate))
	fmt.Printf("Com acordo:  %d  %s\n", s.WithSettlement, formatCI(s.SettlementRate))
	if s.WithRelief > 0 {
		fmt.Printf("Efetividade da tutela: %s\n", formatCI(s.ReliefEffectiveness))
	}
	if s.GrantRate != nil {
		fmt.Printf("Taxa de deferimento:   %s\n", formatCI(*s.GrantRate))
	}

	fmt.Printf("\nTramitacao: mediana %.0f dias (media %.1f, n=%d)\n",
		s.ProcessingDays.Median, s.ProcessingDays.Mean, s.ProcessingDays.N)
	if d := s.ReliefToSettlementDays; d != nil {
		fmt.Printf("Tutela ate acordo: mediana %.0f dias (media %.1f, n=%d)\n",
			d.Median, d.Mean, d.N)
	}

	if a := report.Association; a != nil {
		fmt.Printf("\nFisher exato (tutela x acordo): p=%.4f, OR=%.3f", a.PValue, a.OddsRatio)
		if a.Corrected {
			fmt.Printf(" (correcao +0.5)")
		}
		fmt.Println()
	}
	if n := len(report.Survival); n > 0 {
		last := report.Survival[n-1]
		fmt.Printf("Curva de sobrevivencia: %d degraus, S(%.0f)=%.3f\n", n, last.Time, last.Survival)
	}
}

func formatCI(p inference.Proportion) string {
	return fmt.Sprintf("%.1f%% (IC%.0f%%: %.1f%%-%.1f%%)",
		p.Estimate*100, (1-p.Alpha)*100, p.Lower*100, p.Upper*100)
}
