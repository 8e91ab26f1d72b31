package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"memewall/internal/startup"
)

func newVersionCommand() *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			if jsonFlag {
				return writeJSON(cmd, info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "memewall %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Print build information as JSON")
	return cmd
}
