package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/jsxlive/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit and build details of this binary.

Examples:
  jsxlive version
  jsxlive version --short
  jsxlive version -o json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "o", "text", "Output format (text, yaml, json)")
	versionCmd.Flags().Bool("short", false, "Print only the version")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	if short, _ := cmd.Flags().GetBool("short"); short {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())

		return err
	}

	info := version.GetBuildInfo()
	if format, _ := cmd.Flags().GetString("format"); format == "text" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())

		return err
	}

	return writeOutput(cmd, info)
}
