package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/matching"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the scoring model in use",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s version: %s\n", app, version)

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			w := matching.DefaultWeights
			fmt.Fprintf(out, "weights: skills=%.1f experience=%.1f text=%.1f\n", w.Skills, w.Experience, w.TextSimilarity)
			fmt.Fprintf(out, "fairness policies: %s, %s\n", fairness.PoolAuditName, fairness.ShortlistCheckName)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolP("verbose", "v", false, "also print the scoring weights and fairness policies")
}
