package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an answer file",
	Long: `Score the answers of a submission file (YAML or JSON, "-" for stdin)
without sending anything. Partial answer sets are allowed.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringP("answers", "a", "-", "Submission file with answers")
	scoreCmd.Flags().StringP("lang", "l", "", "Language (overrides the file)")
	scoreCmd.Flags().StringSlice("domains", nil, "Restrict to these domains (overrides the file)")
	scoreCmd.Flags().Bool("json", false, "Print JSON instead of text")

	viper.BindPFlag("score.answers", scoreCmd.Flags().Lookup("answers"))
	viper.BindPFlag("score.lang", scoreCmd.Flags().Lookup("lang"))
	viper.BindPFlag("score.domains", scoreCmd.Flags().Lookup("domains"))
	viper.BindPFlag("score.json", scoreCmd.Flags().Lookup("json"))
}

func runScore(cmd *cobra.Command, args []string) error {
	req, err := readSubmission(viper.GetString("score.answers"))
	if err != nil {
		return err
	}
	if lang := viper.GetString("score.lang"); lang != "" {
		req.Language = lang
	}
	if domains := viper.GetStringSlice("score.domains"); len(domains) > 0 {
		req.Domains = domains
	}

	cat, err := loadCatalog(viper.GetString("catalog-dir"))
	if err != nil {
		return err
	}

	lang := catalog.Match(req.Language)
	questions, err := cat.Questions(lang, req.Domains)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions match domains %v", req.Domains)
	}

	ev := scoring.Evaluate(questions, req.Answers, cat.Bundle(lang))

	out := cmd.OutOrStdout()
	if viper.GetBool("score.json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	}

	printEvaluation(out, lang, ev)
	return nil
}

func printEvaluation(out io.Writer, lang models.Language, ev scoring.Evaluation) {
	bold := lipgloss.NewStyle().Bold(true)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	fmt.Fprintf(out, "%s %d / %d (%s)\n", bold.Render("Score:"), ev.Score, ev.MaxScore, lang)
	fmt.Fprintf(out, "%s %s\n", bold.Render("Tier:"), ev.Label)
	fmt.Fprintf(out, "%s\n", muted.Render(ev.Suggestion))
	for _, d := range ev.Domains {
		fmt.Fprintf(out, "  %-14s %3d / %-3d\n", d.Domain, d.Points, d.MaxPoints)
	}
	if !ev.Complete {
		fmt.Fprintf(out, "%s %v\n", bold.Render("Unanswered:"), ev.Missing)
	}
}
