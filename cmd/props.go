package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/jsxlive/internal/mockdata"
)

var propsCmd = &cobra.Command{
	Use:   "props",
	Short: "Print the placeholder props passed to the component",
	Long: `Print the placeholder props every preview receives, after merging the
--props overrides file. Callback props are listed separately; the sandbox
passes each one a no-op function.

Examples:
  jsxlive props
  jsxlive props --props fixtures.yml -o json`,
	Args: cobra.NoArgs,
	PreRunE: bindFlagsPreRun(map[string]string{
		"props": "preview.props_file",
	}),
	RunE: runProps,
}

func init() {
	rootCmd.AddCommand(propsCmd)

	propsCmd.Flags().String("props", "", "YAML file overriding placeholder props")
	addFormatFlag(propsCmd, "yaml")
}

type propsOutput struct {
	Values    map[string]interface{} `json:"values" yaml:"values"`
	Callbacks []string               `json:"callbacks" yaml:"callbacks"`
}

func runProps(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	props, err := mockdata.Load(cfg.Preview.PropsFile)
	if err != nil {
		return err
	}

	out := propsOutput{Values: make(map[string]interface{}), Callbacks: props.Callbacks()}
	for _, name := range props.Names() {
		if v, ok := props.Value(name); ok {
			out.Values[name] = v
		}
	}

	return writeOutput(cmd, out)
}
