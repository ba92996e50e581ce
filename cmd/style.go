package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/stylesheet"
)

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Apply a property edit to a stylesheet",
	Long: `Apply one property edit to the rule for a class, the same edit the
preview panel makes when a field changes.

The property is given in camelCase or kebab-case; numeric values of length
properties get a px unit. An empty --value removes the declaration.

Examples:
  jsxlive style --css card.css --class card --property paddingTop --value 12
  jsxlive style --css card.css --class card --property color --value '#333' --write
  jsxlive style --css card.css --class card --show -o json`,
	Args: cobra.NoArgs,
	RunE: runStyle,
}

func init() {
	rootCmd.AddCommand(styleCmd)

	styleCmd.Flags().String("css", "-", "Stylesheet file, or - for stdin")
	styleCmd.Flags().String("class", "", "Class name whose rule is edited")
	styleCmd.Flags().String("property", "", "Property to set")
	styleCmd.Flags().String("value", "", "Raw value; empty removes the declaration")
	styleCmd.Flags().Bool("write", false, "Write the result back to the --css file")
	styleCmd.Flags().Bool("show", false, "Print the rule's declarations instead of editing")
	addFormatFlag(styleCmd, "yaml")
	_ = styleCmd.MarkFlagRequired("class")
}

func runStyle(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("css")
	className, _ := cmd.Flags().GetString("class")
	property, _ := cmd.Flags().GetString("property")
	value, _ := cmd.Flags().GetString("value")

	css, err := readSource(cmd, path)
	if err != nil {
		return err
	}

	if show, _ := cmd.Flags().GetBool("show"); show {
		decls := stylesheet.Declarations(css, className)
		if decls == nil {
			return jsxerrors.NewNotFoundError(jsxerrors.ErrCodeRuleNotFound,
				fmt.Sprintf("no rule for .%s", className))
		}

		return writeOutput(cmd, decls)
	}

	if property == "" {
		return jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, "--property is required unless --show is set")
	}

	out := stylesheet.Apply(css, className, property, value)

	if write, _ := cmd.Flags().GetBool("write"); write {
		if path == "-" {
			return jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, "--write needs a --css file")
		}
		if out == css {
			fmt.Fprintln(cmd.ErrOrStderr(), "Stylesheet unchanged")

			return nil
		}

		return os.WriteFile(path, []byte(out), 0o644)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)

	return err
}
