package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/jsxlive/internal/probe"
)

var probeCmd = &cobra.Command{
	Use:   "probe [file.jsx|-]",
	Short: "Render a component in headless Chrome and report what happened",
	Long: `Build the sandbox document for a component, load it in headless Chrome and
report the messages it posted: whether the preview became ready, any runtime
error, and optionally the selection produced by clicking an element.

Exits non-zero when the preview reported an error.

Examples:
  jsxlive probe Card.jsx --css card.css
  jsxlive probe Card.jsx --click '.card button' -o json`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: bindFlagsPreRun(map[string]string{
		"props":   "preview.props_file",
		"timeout": "probe.timeout",
		"chrome":  "probe.bin",
	}),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().String("css", "", "Stylesheet file")
	probeCmd.Flags().String("props", "", "YAML file overriding placeholder props")
	probeCmd.Flags().Duration("timeout", probe.DefaultTimeout, "Time allowed for the whole run")
	probeCmd.Flags().String("chrome", "", "Chrome binary (default: found or downloaded by the launcher)")
	probeCmd.Flags().String("click", "", "CSS selector to click once the preview is ready")
	addFormatFlag(probeCmd, "yaml")
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	doc, err := buildDocument(cmd, cfg, args)
	if err != nil {
		return err
	}

	click, _ := cmd.Flags().GetString("click")
	report, err := probe.Run(ctx, doc.HTML, probe.Options{
		Bin:     cfg.Probe.Bin,
		Timeout: cfg.Probe.Timeout,
		Click:   click,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if err := writeOutput(cmd, report); err != nil {
		return err
	}
	if report.Error != nil {
		return fmt.Errorf("preview error: %s", report.Error.Message)
	}

	return nil
}
