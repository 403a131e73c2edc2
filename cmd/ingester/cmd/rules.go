package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"golang-alert-ingestion-service/cmd/ingester/config"

	"github.com/spf13/cobra"
)

var listRulesFile string

// rulesCmd lists the sender rules in match order
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the sender rules in match order",
	Long: `Rules prints every sender rule the ingest command would use, in the
order they are tried. Rules from --rules-file come before the built-in rules
and replace built-in rules of the same name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.CreateSenderRegistry(listRulesFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSENDER\tSUBJECTS\tDIRECTION\tCURRENCY\tOVERRIDES")
		for _, rule := range registry.All() {
			fields := make([]string, 0, len(rule.ExtractionOverrides))
			for field := range rule.ExtractionOverrides {
				fields = append(fields, string(field))
			}
			sort.Strings(fields)

			direction := ""
			if rule.FixedDirection != nil {
				direction = rule.FixedDirection.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				rule.Name,
				orDash(rule.SenderAddress),
				orDash(strings.Join(rule.SubjectPatterns, " | ")),
				orDash(direction),
				orDash(rule.DefaultCurrency),
				orDash(strings.Join(fields, ",")),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&listRulesFile, "rules-file", "", "file with additional sender rules")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
