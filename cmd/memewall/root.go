package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"memewall/internal/facets"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}
	var jsonFlag bool

	rootCmd := &cobra.Command{
		Use:   "memewall [memeTypes|people|countries|templateTypes|languages]",
		Short: "Build and preview the meme wall",
		Long: "Runs the meme wall pipeline once. With a facet category argument the\n" +
			"aggregated facet collection is printed; otherwise the full meme set.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ctx.runPipeline(cmd.Context(), nil)
			if err != nil {
				return err
			}

			if c, ok := facetArg(args); ok {
				values := ds.Get(c)
				if jsonFlag || !isTerminal(cmd.OutOrStdout()) {
					if values == nil {
						values = []facets.Facet{}
					}
					return writeJSON(cmd, values)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), renderFacetTable(c, values))
				return err
			}
			return writeJSON(cmd, ds.Memes)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (default ./"+defaultConfigHint+")")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&ctx.noColorFlag, "no-color", false, "Disable coloured log output")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print facets as JSON even on a terminal")

	rootCmd.AddCommand(newBuildCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// facetArg returns the category named by the first argument. Anything else
// selects the full meme set.
func facetArg(args []string) (facets.Category, bool) {
	if len(args) == 0 {
		return "", false
	}
	return facets.ParseCategory(args[0])
}
