package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/config"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/delivery"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/mail"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the report of a submission file",
	Long: `Render the report of a submission file (YAML or JSON, "-" for stdin) as a PDF
or as a terminal summary. Nothing is sent or recorded.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringP("input", "i", "-", "Submission file")
	reportCmd.Flags().StringP("out", "o", "", "Output file (default: the report filename, \"-\" for stdout)")
	reportCmd.Flags().StringP("format", "f", "pdf", "Output format (pdf|terminal)")
	reportCmd.Flags().StringP("lang", "l", "", "Language (overrides the file)")
	reportCmd.Flags().Int("width", 80, "Terminal width for the terminal format")
	reportCmd.Flags().String("font", "", "TrueType font for the PDF (default: built-in, env REPORT_FONT)")
	reportCmd.Flags().String("font-bold", "", "Bold TrueType font for the PDF (env REPORT_FONT_BOLD)")

	viper.BindPFlag("report.input", reportCmd.Flags().Lookup("input"))
	viper.BindPFlag("report.out", reportCmd.Flags().Lookup("out"))
	viper.BindPFlag("report.format", reportCmd.Flags().Lookup("format"))
	viper.BindPFlag("report.lang", reportCmd.Flags().Lookup("lang"))
	viper.BindPFlag("report.width", reportCmd.Flags().Lookup("width"))
	viper.BindPFlag("report.font", reportCmd.Flags().Lookup("font"))
	viper.BindPFlag("report.font-bold", reportCmd.Flags().Lookup("font-bold"))
	viper.BindEnv("report.font", "REPORT_FONT")
	viper.BindEnv("report.font-bold", "REPORT_FONT_BOLD")
}

func runReport(cmd *cobra.Command, args []string) error {
	req, err := readSubmission(viper.GetString("report.input"))
	if err != nil {
		return err
	}
	if lang := viper.GetString("report.lang"); lang != "" {
		req.Language = lang
	}

	out := viper.GetString("report.out")

	var renderer report.Renderer
	switch format := viper.GetString("report.format"); format {
	case "pdf":
		renderer = pdfRenderer(config.ReportConfig{
			FontPath:     viper.GetString("report.font"),
			BoldFontPath: viper.GetString("report.font-bold"),
		})
	case "terminal":
		if out == "" {
			out = "-"
		}
		renderer = report.NewTerminalRenderer(viper.GetInt("report.width"), out == "-", true)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	cat, err := loadCatalog(viper.GetString("catalog-dir"))
	if err != nil {
		return err
	}
	composer, err := mail.NewComposer(mail.ComposerConfig{})
	if err != nil {
		return err
	}
	orch, err := delivery.New(delivery.Deps{Catalog: cat, Composer: composer, Renderer: renderer})
	if err != nil {
		return err
	}

	artifact, err := orch.GenerateReport(cmd.Context(), req)
	if err != nil {
		return err
	}

	if out == "" {
		out = artifact.Filename
	}
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(artifact.Data)
		return err
	}

	if err := os.WriteFile(out, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(artifact.Data))
	return nil
}

