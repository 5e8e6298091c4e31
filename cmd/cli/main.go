package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"crminsight/adapters/excel"
	"crminsight/app"
	"crminsight/domain/model"
	"crminsight/internal/classifier"
	internaldataset "crminsight/internal/dataset"
	"crminsight/internal/session"
	"crminsight/internal/testkit"
	"crminsight/internal/training"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// targetFlags are shared by commands that train
type targetFlags struct {
	target   string
	idColumn string
	artifact string
	sheet    string
	maxIter  int
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "crminsight-cli",
		Short: "Train churn models and score customer tables from the command line",
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newTrainCmd(),
		newScoreCmd(),
		newReportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", envOr("DEFAULT_TARGET", "churn"), "Target column")
	cmd.Flags().StringVar(&f.idColumn, "id-column", envOr("DEFAULT_ID_COLUMN", "customer_id"), "Identifier column echoed in scores")
	cmd.Flags().StringVar(&f.artifact, "artifact", envOr("ARTIFACT_PATH", "model.json"), "Where the fitted artifact is exported")
	cmd.Flags().StringVar(&f.sheet, "sheet", os.Getenv("EXCEL_SHEET"), "Workbook sheet to read from .xlsx input (default first sheet)")
	cmd.Flags().IntVar(&f.maxIter, "max-iter", classifier.DefaultMaxIterations, "Maximum optimizer iterations when fitting")
}

func (f *targetFlags) spec() model.TargetSpec {
	return model.TargetSpec{Target: f.target, IDColumn: f.idColumn}
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultChurnConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic customer churn CSV",
		Long: `Write a deterministic synthetic customer table with a binary churn column.

Example: crminsight-cli generate --rows 1000 --seed 7 --out customers.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer file.Close()
				w = file
			}
			return testkit.NewChurnDataGenerator(config).WriteCSV(w)
		},
	}

	cmd.Flags().IntVar(&config.CustomerCount, "rows", config.CustomerCount, "Number of customers")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed for deterministic output")
	cmd.Flags().Float64Var(&config.MissingRate, "missing-rate", config.MissingRate, "Share of feature cells left blank")
	cmd.Flags().Float64Var(&config.Intercept, "intercept", config.Intercept, "Baseline churn log-odds")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")

	return cmd
}

func newTrainCmd() *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "train [file]",
		Short: "Ingest a .csv or .xlsx file, train, and print diagnostics",
		Long: `Ingest a customer table, fit the churn model, export the artifact and print
the training result and diagnostics as JSON.

Example: crminsight-cli train customers.csv --target churn --id-column customer_id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, sess, err := newPipeline(&flags)
			if err != nil {
				return err
			}
			if err := ingestFile(ctx, svc, sess, args[0]); err != nil {
				return err
			}

			result, err := svc.Train(ctx, sess, flags.spec())
			if err != nil {
				return err
			}
			d, err := svc.Diagnostics(ctx, sess)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"train":       result,
				"diagnostics": d,
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newScoreCmd() *cobra.Command {
	var flags targetFlags
	var threshold float64
	var modelPath string

	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score every row of a file",
		Long: `Score every row of a customer table and print probabilities and
recommended actions as JSON. By default the model is trained on the same
file; pass --model to score with a previously exported artifact instead.

Example: crminsight-cli score customers.csv --threshold 0.6
         crminsight-cli score new_customers.csv --model model.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, sess, err := newPipeline(&flags)
			if err != nil {
				return err
			}
			if err := ingestFile(ctx, svc, sess, args[0]); err != nil {
				return err
			}

			if modelPath != "" {
				exporter, err := session.NewArtifactExporter(modelPath, nil)
				if err != nil {
					return err
				}
				artifact, err := exporter.Load(ctx)
				if err != nil {
					return err
				}
				svc.Adopt(ctx, sess, artifact)
			} else if _, err := svc.Train(ctx, sess, flags.spec()); err != nil {
				return err
			}

			result, err := svc.Score(ctx, sess, threshold)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "At-risk probability cutoff")
	cmd.Flags().StringVar(&modelPath, "model", "", "Score with an exported artifact instead of training")
	return cmd
}

func newReportCmd() *cobra.Command {
	var flags targetFlags
	var threshold float64

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Train on a file and print a Markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, sess, err := newPipeline(&flags)
			if err != nil {
				return err
			}
			if err := ingestFile(ctx, svc, sess, args[0]); err != nil {
				return err
			}
			if _, err := svc.Train(ctx, sess, flags.spec()); err != nil {
				return err
			}
			report, err := svc.Report(ctx, sess, threshold)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), report)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "At-risk probability cutoff")
	return cmd
}

func newPipeline(flags *targetFlags) (*app.PipelineService, *session.Session, error) {
	if flags.maxIter <= 0 {
		return nil, nil, fmt.Errorf("--max-iter must be positive, got %d", flags.maxIter)
	}
	exporter, err := session.NewArtifactExporter(flags.artifact, nil)
	if err != nil {
		return nil, nil, err
	}
	parser := internaldataset.NewParserWithConfig(excel.ExcelConfig{SheetName: flags.sheet})
	trainer := training.NewTrainerWithConfig(classifier.Config{MaxIterations: flags.maxIter, L2: classifier.DefaultL2})
	svc := app.NewPipelineService(parser, trainer, exporter)
	return svc, session.New(), nil
}

func ingestFile(ctx context.Context, svc *app.PipelineService, sess *session.Session, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	_, err = svc.IngestFile(ctx, sess, path, raw)
	return err
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
