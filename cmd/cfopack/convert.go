package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banktocfo/banktocfo/internal/categorize"
	"github.com/banktocfo/banktocfo/internal/logger"
	"github.com/banktocfo/banktocfo/internal/pdfimage"
	"github.com/banktocfo/banktocfo/internal/report"
	"github.com/banktocfo/banktocfo/internal/statement"
	"github.com/banktocfo/banktocfo/internal/vision"
)

func newConvertCommand() *cobra.Command {
	var (
		output    string
		rulesPath string
		model     string
		level     string
	)

	cmd := &cobra.Command{
		Use:   "convert <statement>",
		Short: "Convert a PDF or CSV bank statement into an xlsx report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
				output = base + "_report.xlsx"
			}
			return runConvert(cmd, input, output, rulesPath, model, level)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output workbook path (default: <statement>_report.xlsx)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "category rules YAML file (default: built-in rules)")
	cmd.Flags().StringVar(&model, "model", vision.DefaultModel, "vision model for PDF extraction")
	cmd.Flags().StringVar(&level, "log-level", "warn", "log level")

	return cmd
}

func runConvert(cmd *cobra.Command, input, output, rulesPath, model, level string) error {
	log := logger.New(level)

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading statement: %w", err)
	}

	rules := categorize.DefaultRules()
	if rulesPath != "" {
		rules, err = categorize.LoadRules(rulesPath)
		if err != nil {
			return fmt.Errorf("loading rules: %w", err)
		}
	}

	extractor := vision.NewGemini(model, log)
	parser := statement.NewParser(extractor, nil, vision.DefaultOptions(), pdfimage.DefaultDPI, log)

	res, err := parser.Parse(cmd.Context(), input, data)
	if err != nil {
		return fmt.Errorf("parsing statement: %w", err)
	}

	categorized := categorize.New(rules).Apply(res.Transactions)
	summary := report.Aggregate(categorized)

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	if err := report.Write(f, summary, categorized); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d transactions across %d months (%d skipped)\n",
		output, summary.TransactionCount, summary.Months, res.SkippedRows)
	return nil
}
