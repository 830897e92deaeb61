package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate question catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Check that a catalog directory loads and its languages agree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.New()
		if err := cat.LoadFromDir(args[0]); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, lang := range cat.Languages() {
			questions, err := cat.Questions(lang, nil)
			if err != nil {
				return err
			}
			domains, err := cat.Domains(lang)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d questions in %d domains\n", lang, len(questions), len(domains))
		}
		fmt.Fprintln(out, "catalog OK")
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the questions of one language",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(viper.GetString("catalog-dir"))
		if err != nil {
			return err
		}

		lang := catalog.Match(viper.GetString("catalog.lang"))
		domains, err := cat.Domains(lang)
		if err != nil {
			return err
		}

		heading := lipgloss.NewStyle().Bold(true)
		out := cmd.OutOrStdout()
		for _, d := range domains {
			fmt.Fprintf(out, "%s (%d points)\n", heading.Render(d.Name), d.MaxPoints)
			questions, err := cat.Questions(lang, []string{d.ID})
			if err != nil {
				return err
			}
			for _, q := range questions {
				fmt.Fprintf(out, "  %s  %s\n", q.ID, q.Text)
				for _, o := range q.Options {
					fmt.Fprintf(out, "      %s) %s [%d]\n", o.Value, o.Label, o.Points)
				}
			}
		}
		return nil
	},
}

func init() {
	catalogListCmd.Flags().StringP("lang", "l", "en", "Language")
	viper.BindPFlag("catalog.lang", catalogListCmd.Flags().Lookup("lang"))

	catalogCmd.AddCommand(catalogValidateCmd, catalogListCmd)
}
