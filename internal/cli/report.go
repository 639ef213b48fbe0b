package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/foresight/internal/model"
	"github.com/ppiankov/foresight/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	jsonOut       string
	mdOut         string
	noFooter      bool
	reportTimeout time.Duration
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [product] [brand]",
	Short: "Generate a sales-risk report for a product",
	Long: `Report runs the full pipeline for one product/brand pair:
refresh comments, analyze sentiment, predict sales loss, fetch the
measured distribution, and assemble the report.

Product and brand default to the last successful selection.

Example:
  foresight report "iPhone 15" Apple
  foresight report "iPhone 15" Apple --json report.json --md report.md
  foresight report --timeout 2m`,
	Args: cobra.MaximumNArgs(2),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&jsonOut, "json", "", "write JSON report to file")
	reportCmd.Flags().StringVar(&mdOut, "md", "", "write Markdown report to file")
	reportCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	reportCmd.Flags().DurationVar(&reportTimeout, "timeout", 3*time.Minute, "overall timeout for the run")
}

func runReport(cmd *cobra.Command, args []string) error {
	var product, brand string
	if len(args) > 0 {
		product = args[0]
	}
	if len(args) > 1 {
		brand = args[1]
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	session := pipeline.NewSession(a.assembler, a.store, a.log)
	report, err := session.Generate(ctx, product, brand)
	if err != nil {
		return explain(err)
	}

	if jsonOut != "" {
		if err := a.renderer.RenderJSON(report, jsonOut); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", jsonOut)
	}
	if mdOut != "" {
		if err := a.renderer.RenderMarkdown(report, mdOut); err != nil {
			return fmt.Errorf("write Markdown report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", mdOut)
	}

	a.renderer.RenderSummary(cmd.OutOrStdout(), report)
	return nil
}

// explain annotates a pipeline error with the action a user can take
func explain(err error) error {
	var ve *model.ValidationError
	switch {
	case errors.Is(err, model.ErrCanceled):
		return err
	case errors.As(err, &ve) && ve.Field == "product_name":
		return fmt.Errorf("%w\nPass a product name or run 'foresight set <product>'", err)
	case model.IsRetryable(err):
		return fmt.Errorf("%w\nThe analytics service may be busy; try again", err)
	default:
		return err
	}
}
