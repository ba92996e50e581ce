package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/jsxlive/internal/normalize"
	"github.com/conneroisu/jsxlive/internal/resolve"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file.jsx|-]",
	Short: "Print the component source as the sandbox will run it",
	Long: `Normalize a component: strip imports and exports, drop line comments,
rewrite arrow components and template literals. The result is what the sandbox
document embeds.

With --resolve the component the resolver would mount is reported on stderr.

Examples:
  jsxlive normalize Card.jsx
  pbpaste | jsxlive normalize - --trace`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().Bool("trace", false, "List the steps that changed the source on stderr")
	normalizeCmd.Flags().Bool("resolve", false, "Report the component that would be mounted on stderr")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	source := "-"
	if len(args) == 1 {
		source = args[0]
	}
	src, err := readSource(cmd, source)
	if err != nil {
		return err
	}

	out, steps := normalize.New().NormalizeWithTrace(src)

	stderr := cmd.ErrOrStderr()
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		if len(steps) == 0 {
			fmt.Fprintln(stderr, "No steps changed the source")
		} else {
			fmt.Fprintln(stderr, "Steps:", strings.Join(steps, ", "))
		}
	}

	if res, _ := cmd.Flags().GetBool("resolve"); res {
		if name, detector, ok := resolve.NewChain().Detect(out); ok {
			fmt.Fprintf(stderr, "Component: %s (%s)\n", name, detector)
		} else {
			fmt.Fprintln(stderr, "Component: none found")
		}
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), out)

	return err
}
