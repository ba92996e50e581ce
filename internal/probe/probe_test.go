package probe

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jsxlive/internal/protocol"
	"github.com/conneroisu/jsxlive/internal/sandbox"
	"github.com/conneroisu/jsxlive/internal/types"
)

func TestInjectHook(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		prefix string
	}{
		{
			name:   "after head",
			doc:    "<!DOCTYPE html><html><head><title>x</title></head></html>",
			prefix: "<!DOCTYPE html><html><head>" + hookScript + "<title>",
		},
		{
			name:   "head with attributes",
			doc:    `<html><HEAD lang="en"><meta charset="utf-8"></HEAD></html>`,
			prefix: `<html><HEAD lang="en">` + hookScript + "<meta",
		},
		{
			name:   "no head",
			doc:    "<div>bare</div>",
			prefix: hookScript + "<div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InjectHook(tt.doc)
			assert.True(t, strings.HasPrefix(got, tt.prefix), got)
			assert.Equal(t, 1, strings.Count(got, hookScript))
		})
	}
}

func TestReportApply(t *testing.T) {
	r := &Report{}
	r.apply(pageState{
		Events: []protocol.Message{
			{Type: protocol.MessagePreviewReady, Generation: "g1"},
			{Type: protocol.MessagePreviewError, Generation: "g1", Error: "boom", Stack: "at Card"},
			{Type: protocol.MessageElementSelected, Generation: "g1", Element: &protocol.ElementPayload{
				Type: "button", TagName: "BUTTON", ClassName: "buy",
			}},
		},
	})

	assert.True(t, r.Ready)
	require.NotNil(t, r.Error)
	assert.Equal(t, "boom", r.Error.Message)
	assert.Equal(t, "at Card", r.Error.Stack)
	require.NotNil(t, r.Selection)
	assert.Equal(t, "buy", r.Selection.ClassName)
	assert.True(t, r.settled())
}

func TestReportSettled(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   bool
	}{
		{"nothing yet", Report{}, false},
		{"unresolved still waits for ready", Report{Placeholder: "unresolved"}, false},
		{"empty document", Report{Placeholder: "empty"}, true},
		{"inline error", Report{Placeholder: "error", InlineError: "Component failed to load"}, true},
		{"ready", Report{Ready: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.settled())
		})
	}
}

func browserOptions(t *testing.T) Options {
	t.Helper()
	if os.Getenv("JSXLIVE_PROBE") != "1" {
		t.Skip("set JSXLIVE_PROBE=1 to run headless browser tests")
	}

	return Options{Bin: os.Getenv("JSXLIVE_PROBE_BIN"), Timeout: time.Minute}
}

func TestRunReadyAndSelect(t *testing.T) {
	opts := browserOptions(t)
	opts.Click = ".buy"

	doc, err := sandbox.NewBuilder().Build(types.GeneratedComponent{
		JSX: `function Card() { return <div className="card"><button className="buy">Buy</button></div>; }`,
		CSS: `.buy { padding: 4px; }`,
	}, sandbox.Options{Generation: "probe-1"})
	require.NoError(t, err)

	report, err := Run(context.Background(), doc.HTML, opts)
	require.NoError(t, err)
	assert.True(t, report.Ready)
	assert.Nil(t, report.Error)
	require.NotNil(t, report.Selection)
	assert.Equal(t, "BUTTON", report.Selection.TagName)
	assert.Equal(t, "buy", report.Selection.ClassName)
	assert.Equal(t, "probe-1", report.Messages[0].Generation)
}

func TestRunEmptyDocument(t *testing.T) {
	opts := browserOptions(t)

	doc, err := sandbox.NewBuilder().Build(types.GeneratedComponent{}, sandbox.Options{Generation: "probe-2"})
	require.NoError(t, err)

	report, err := Run(context.Background(), doc.HTML, opts)
	require.NoError(t, err)
	assert.False(t, report.Ready)
	assert.Equal(t, "empty", report.Placeholder)
	assert.Empty(t, report.Messages)
}

func TestRunCompileFailureStaysInline(t *testing.T) {
	opts := browserOptions(t)

	doc, err := sandbox.NewBuilder().Build(types.GeneratedComponent{
		JSX: `function Broken() { return <div className="x">; }`,
	}, sandbox.Options{Generation: "probe-3"})
	require.NoError(t, err)

	report, err := Run(context.Background(), doc.HTML, opts)
	require.NoError(t, err)
	assert.False(t, report.Ready)
	assert.Nil(t, report.Error)
	assert.Equal(t, "error", report.Placeholder)
}
