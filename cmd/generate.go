package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/generator"
	"github.com/conneroisu/jsxlive/internal/types"
)

var generateCmd = &cobra.Command{
	Use:     "generate <prompt...>",
	Aliases: []string{"gen"},
	Short:   "Generate or revise a component from a prompt",
	Long: `Ask the configured generator for a component.

With --jsx (and optionally --css) the current files are sent along and the
model revises them; --write replaces them with the result. Otherwise the
component is printed to stdout and the model's prose to stderr.

Examples:
  jsxlive generate --provider openai "a pricing card with three tiers"
  jsxlive generate --jsx Card.jsx --css card.css --write "make the title larger"`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: bindFlagsPreRun(map[string]string{
		"jsx":      "preview.jsx_file",
		"css":      "preview.css_file",
		"provider": "generator.provider",
		"model":    "generator.model",
	}),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("jsx", "", "Current component source file")
	generateCmd.Flags().String("css", "", "Current stylesheet file")
	generateCmd.Flags().String("provider", "", "Generator provider (openai, ollama, gemini)")
	generateCmd.Flags().String("model", "", "Generator model")
	generateCmd.Flags().Bool("write", false, "Write the result back to --jsx and --css")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	gen, err := generator.New(ctx, cfg.Generator)
	if err != nil {
		return err
	}
	if gen == nil {
		return jsxerrors.NewConfigError(jsxerrors.ErrCodeGeneratorDisabled,
			"no generator provider configured (set --provider or generator.provider)")
	}

	var current types.GeneratedComponent
	if current.JSX, err = readSource(cmd, cfg.Preview.JSXFile); err != nil {
		return err
	}
	if current.CSS, err = readSource(cmd, cfg.Preview.CSSFile); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Generator.Timeout)
	defer cancel()

	logger.Info(ctx, "Generating component", "provider", gen.Name(), "model", cfg.Generator.Model)
	result, err := gen.Generate(ctx, generator.Request{
		Prompt:  strings.Join(args, " "),
		Current: current,
	})
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if result.Reply != "" {
		fmt.Fprintln(stderr, result.Reply)
	}
	if !result.Changed {
		fmt.Fprintln(stderr, "The reply contained no component code")

		return nil
	}

	if write, _ := cmd.Flags().GetBool("write"); write {
		return writeComponent(cmd, cfg.Preview.JSXFile, cfg.Preview.CSSFile, result.Component)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Component.JSX)
	if result.Component.CSS != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, result.Component.CSS)
	}

	return nil
}

func writeComponent(cmd *cobra.Command, jsxPath, cssPath string, c types.GeneratedComponent) error {
	if jsxPath == "" || jsxPath == "-" {
		return jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, "--write needs a --jsx file")
	}
	if err := os.WriteFile(jsxPath, []byte(c.JSX), 0o644); err != nil {
		return jsxerrors.NewIOError(jsxerrors.ErrCodeInternalError, "failed to write "+jsxPath, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Wrote", jsxPath)

	if cssPath == "" || cssPath == "-" {
		return nil
	}
	if err := os.WriteFile(cssPath, []byte(c.CSS), 0o644); err != nil {
		return jsxerrors.NewIOError(jsxerrors.ErrCodeInternalError, "failed to write "+cssPath, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Wrote", cssPath)

	return nil
}
