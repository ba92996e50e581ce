// Package probe loads a sandbox document in headless Chrome and records the
// messages it posts, giving an end-to-end check of a built preview without
// a host page.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/logging"
	"github.com/conneroisu/jsxlive/internal/protocol"
	"github.com/conneroisu/jsxlive/internal/types"
)

// DefaultTimeout bounds a probe run when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

const pollInterval = 50 * time.Millisecond

// hookScript records every message the document posts to itself. A top-level
// page is its own parent, so the sandbox's parent.postMessage lands here.
const hookScript = `<script>window.__jsxliveProbe=[];` +
	`window.addEventListener('message',function(e){window.__jsxliveProbe.push(e.data);});</script>`

const collectScript = `() => JSON.stringify({
  events: window.__jsxliveProbe || [],
  placeholder: (document.querySelector('[data-preview-placeholder]') || { getAttribute: function () { return ''; } }).getAttribute('data-preview-placeholder'),
  inline: ((document.querySelector('.preview-inline-error') || {}).textContent || '').trim()
})`

var headOpen = regexp.MustCompile(`(?i)<head[^>]*>`)

// Options configures a probe run.
type Options struct {
	// Bin is the Chrome binary; empty lets the launcher find or download one.
	Bin string
	// Timeout bounds the whole run.
	Timeout time.Duration
	// Click is a CSS selector clicked once the preview is ready.
	Click  string
	Logger logging.Logger
}

// Failure is a PREVIEW_ERROR observed during the run.
type Failure struct {
	Message string `json:"message" yaml:"message"`
	Stack   string `json:"stack,omitempty" yaml:"stack,omitempty"`
}

// Report is what the document did while loaded.
type Report struct {
	Ready       bool                   `json:"ready" yaml:"ready"`
	Placeholder string                 `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	InlineError string                 `json:"inlineError,omitempty" yaml:"inline_error,omitempty"`
	Error       *Failure               `json:"error,omitempty" yaml:"error,omitempty"`
	Selection   *types.SelectedElement `json:"selection,omitempty" yaml:"selection,omitempty"`
	Messages    []protocol.Message     `json:"messages" yaml:"messages"`
	Elapsed     time.Duration          `json:"elapsed" yaml:"elapsed"`
}

// settled reports whether the document reached a terminal state for its
// initial render.
func (r *Report) settled() bool {
	return r.Ready || r.Error != nil || r.Placeholder == "empty" || r.Placeholder == "error"
}

type pageState struct {
	Events      []protocol.Message `json:"events"`
	Placeholder string             `json:"placeholder"`
	Inline      string             `json:"inline"`
}

// InjectHook inserts the message recorder at the start of the document head,
// or at the very start when there is no head tag.
func InjectHook(document string) string {
	loc := headOpen.FindStringIndex(document)
	if loc == nil {
		return hookScript + document
	}

	return document[:loc[1]] + hookScript + document[loc[1]:]
}

// Run loads document in a fresh headless browser and reports on it.
func Run(ctx context.Context, document string, opts Options) (*Report, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	log := opts.Logger.WithComponent("probe")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	started := time.Now()

	pageURL, stop, err := serve(InjectHook(document))
	if err != nil {
		return nil, jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeFailed, "failed to serve document", err)
	}
	defer stop()

	l := launcher.New().Context(ctx).Headless(true)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeFailed, "failed to launch browser", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeFailed, "failed to connect to browser", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeFailed, "failed to open page", err)
	}
	log.Debug(ctx, "Document loaded", "url", pageURL)

	report := &Report{}
	if err := poll(ctx, page, report, report.settled); err != nil {
		return report, err
	}

	if opts.Click != "" && report.Ready {
		el, err := page.Element(opts.Click)
		if err != nil {
			return report, jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeFailed, "click target not found", err).
				WithContext("selector", opts.Click)
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return report, jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeFailed, "click failed", err).
				WithContext("selector", opts.Click)
		}
		if err := poll(ctx, page, report, func() bool { return report.Selection != nil }); err != nil {
			return report, err
		}
	}

	report.Elapsed = time.Since(started)
	log.Info(ctx, "Probe finished", "ready", report.Ready, "messages", len(report.Messages), "elapsed", report.Elapsed)

	return report, nil
}

func poll(ctx context.Context, page *rod.Page, report *Report, done func() bool) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		res, err := page.Eval(collectScript)
		if err == nil {
			var state pageState
			if err := json.Unmarshal([]byte(res.Value.Str()), &state); err == nil {
				report.apply(state)
			}
		}
		if done() {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeTimeout, "preview did not settle in time", ctx.Err())
			}

			return jsxerrors.NewProbeError(jsxerrors.ErrCodeProbeFailed, "probe cancelled", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Report) apply(state pageState) {
	r.Messages = state.Events
	r.Placeholder = state.Placeholder
	r.InlineError = state.Inline
	r.Ready = false
	r.Error = nil
	r.Selection = nil

	for _, msg := range state.Events {
		switch msg.Type {
		case protocol.MessagePreviewReady:
			r.Ready = true
		case protocol.MessagePreviewError:
			r.Error = &Failure{Message: msg.Error, Stack: msg.Stack}
		case protocol.MessageElementSelected:
			if msg.Element != nil {
				sel := msg.Element.SelectedElement()
				r.Selection = &sel
			}
		}
	}
}

// serve exposes the document on a loopback listener so the page gets a real
// origin and its external runtime scripts load normally.
func serve(document string) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(document))
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()

	return "http://" + ln.Addr().String() + "/", func() { _ = srv.Close() }, nil
}
