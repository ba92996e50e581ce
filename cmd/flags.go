package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
)

// bindFlags binds flag names to viper keys. It runs in PreRunE so commands
// sharing a key (serve and generate both set preview.jsx_file) each bind their
// own flag only when they run.
func bindFlags(cmd *cobra.Command, bindings map[string]string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := bindings[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = viper.BindPFlag(key, f)
	})

	return bindErr
}

// bindFlagsPreRun returns a PreRunE that binds bindings.
func bindFlagsPreRun(bindings map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, bindings)
	}
}

func addFormatFlag(cmd *cobra.Command, def string) {
	cmd.Flags().StringP("format", "o", def, "Output format (yaml, json)")
}

// writeOutput encodes v in the format named by the command's --format flag.
func writeOutput(cmd *cobra.Command, v interface{}) error {
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	default:
		return jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported format: %s (supported: yaml, json)", format))
	}
}

// readSource reads a file, or stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", jsxerrors.NewIOError(jsxerrors.ErrCodeFileNotFound, "failed to read "+path, err)
	}

	return string(data), nil
}
