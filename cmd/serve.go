package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/jsxlive/internal/bridge"
	"github.com/conneroisu/jsxlive/internal/config"
	"github.com/conneroisu/jsxlive/internal/generator"
	"github.com/conneroisu/jsxlive/internal/mockdata"
	"github.com/conneroisu/jsxlive/internal/sandbox"
	"github.com/conneroisu/jsxlive/internal/server"
	"github.com/conneroisu/jsxlive/internal/session"
	"github.com/conneroisu/jsxlive/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the live preview server",
	Long: `Start the live preview server.

With --jsx the component is loaded from disk and reloaded on change; property
edits made in the browser are written back to the --css file. Without it the
component comes from the chat box or the HTTP API.

Examples:
  jsxlive serve --jsx Card.jsx --css card.css
  jsxlive serve --provider ollama --model llama3.1
  jsxlive serve --session-driver sqlite --session 01J...`,
	PreRunE: bindFlagsPreRun(map[string]string{
		"port":           "server.port",
		"host":           "server.host",
		"open":           "server.open",
		"jsx":            "preview.jsx_file",
		"css":            "preview.css_file",
		"props":          "preview.props_file",
		"grid":           "preview.show_grid",
		"watch":          "watch.enabled",
		"provider":       "generator.provider",
		"model":          "generator.model",
		"session-driver": "session.driver",
	}),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "Port to serve on")
	serveCmd.Flags().String("host", config.DefaultHost, "Host to bind to")
	serveCmd.Flags().Bool("open", false, "Open the browser once the server is up")
	serveCmd.Flags().String("jsx", "", "Component source file")
	serveCmd.Flags().String("css", "", "Stylesheet file")
	serveCmd.Flags().String("props", "", "YAML file overriding placeholder props")
	serveCmd.Flags().Bool("grid", true, "Show the background grid")
	serveCmd.Flags().Bool("watch", true, "Reload the component files when they change")
	serveCmd.Flags().String("provider", "", "Generator provider (openai, ollama, gemini)")
	serveCmd.Flags().String("model", "", "Generator model")
	serveCmd.Flags().String("session-driver", "", "Session store (memory, sqlite)")
	serveCmd.Flags().String("session", "", "Resume the session with this ID")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	b, err := bridge.New(builder, cfg.Preview.ShowGrid,
		bridge.WithMailboxSize(cfg.Bridge.MailboxSize),
		bridge.WithLogger(logger))
	if err != nil {
		return err
	}

	store, err := session.Open(ctx, cfg.Session.Driver, cfg.Session.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	gen, err := generator.New(ctx, cfg.Generator)
	if err != nil {
		return err
	}

	var files *watcher.ComponentFiles
	if cfg.ServingFromFiles() {
		files = &watcher.ComponentFiles{JSX: cfg.Preview.JSXFile, CSS: cfg.Preview.CSSFile}
	}

	sessionID, _ := cmd.Flags().GetString("session")
	srv, err := server.New(ctx, cfg, server.Deps{
		Bridge:    b,
		Store:     store,
		Generator: gen,
		Files:     files,
		SessionID: sessionID,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var fw *watcher.FileWatcher
	if files != nil && cfg.Watch.Enabled {
		fw, err = watcher.WatchComponent(*files, b, cfg.Watch.Debounce, watcher.WithLogger(logger))
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	if fw != nil {
		g.Go(func() error { return fw.Run(gctx) })
	}

	err = g.Wait()
	logger.Info(context.Background(), "Preview server stopped")

	return err
}

// newBuilder creates the document builder from the preview settings.
func newBuilder(cfg *config.Config) (*sandbox.Builder, error) {
	props, err := mockdata.Load(cfg.Preview.PropsFile)
	if err != nil {
		return nil, err
	}

	opts := []sandbox.BuilderOption{sandbox.WithProps(props)}
	if len(cfg.Preview.RuntimeScripts) > 0 {
		opts = append(opts, sandbox.WithRuntimeScripts(cfg.Preview.RuntimeScripts...))
	}

	return sandbox.NewBuilder(opts...), nil
}
