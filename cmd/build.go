package cmd

import (
	"fmt"
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/conneroisu/jsxlive/internal/config"
	"github.com/conneroisu/jsxlive/internal/sandbox"
	"github.com/conneroisu/jsxlive/internal/types"
)

var buildCmd = &cobra.Command{
	Use:     "build [file.jsx|-]",
	Aliases: []string{"b"},
	Short:   "Build a standalone sandbox document",
	Long: `Build the sandbox document for a component and write it to stdout or --out.

The document is the same one the preview server loads into its frame; open it
directly in a browser to render the component without the host page.

Examples:
  jsxlive build Card.jsx --css card.css > preview.html
  cat Card.jsx | jsxlive build - --inspect`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: bindFlagsPreRun(map[string]string{
		"props": "preview.props_file",
		"grid":  "preview.show_grid",
	}),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("css", "", "Stylesheet file")
	buildCmd.Flags().String("props", "", "YAML file overriding placeholder props")
	buildCmd.Flags().Bool("grid", true, "Show the background grid")
	buildCmd.Flags().String("generation", "", "Generation stamped into the document (default: a new ULID)")
	buildCmd.Flags().String("out", "", "Write the document to this file")
	buildCmd.Flags().Bool("inspect", false, "Print a structural report instead of the document")
	addFormatFlag(buildCmd, "yaml")
}

// buildInfo is what `build --inspect` reports.
type buildInfo struct {
	Component string         `json:"component,omitempty" yaml:"component,omitempty"`
	Detector  string         `json:"detector,omitempty" yaml:"detector,omitempty"`
	Steps     []string       `json:"steps" yaml:"steps"`
	Bytes     int            `json:"bytes" yaml:"bytes"`
	Document  sandbox.Report `json:"document" yaml:"document"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	doc, err := buildDocument(cmd, cfg, args)
	if err != nil {
		return err
	}

	if inspect, _ := cmd.Flags().GetBool("inspect"); inspect {
		report, err := sandbox.Inspect(doc.HTML)
		if err != nil {
			return err
		}

		return writeOutput(cmd, buildInfo{
			Component: doc.ComponentName,
			Detector:  doc.Detector,
			Steps:     doc.Steps,
			Bytes:     len(doc.HTML),
			Document:  report,
		})
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := os.WriteFile(out, []byte(doc.HTML), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", out, len(doc.HTML))

		return nil
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), doc.HTML)

	return err
}

// buildDocument reads the component named by args (or stdin) and builds it
// with the configured props and runtime scripts.
func buildDocument(cmd *cobra.Command, cfg *config.Config, args []string) (sandbox.Document, error) {
	source := "-"
	if len(args) == 1 {
		source = args[0]
	}
	jsx, err := readSource(cmd, source)
	if err != nil {
		return sandbox.Document{}, err
	}
	cssPath, _ := cmd.Flags().GetString("css")
	css, err := readSource(cmd, cssPath)
	if err != nil {
		return sandbox.Document{}, err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return sandbox.Document{}, err
	}

	generation, _ := cmd.Flags().GetString("generation")
	if generation == "" {
		generation = ulid.Make().String()
	}

	return builder.Build(types.GeneratedComponent{JSX: jsx, CSS: css}, sandbox.Options{
		ShowGrid:   cfg.Preview.ShowGrid,
		Generation: generation,
	})
}
