package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/jsxlive/internal/bridge"
	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/generator"
	"github.com/conneroisu/jsxlive/internal/session"
	"github.com/conneroisu/jsxlive/internal/types"
	"github.com/conneroisu/jsxlive/internal/version"
)

type displayRequest struct {
	ShowGrid bool `json:"showGrid"`
}

type componentRequest struct {
	JSX string `json:"jsx"`
	CSS string `json:"css"`
}

type chatRequest struct {
	Message string `json:"message"`
	// ElementScoped targets the selected element instead of the whole
	// component.
	ElementScoped bool `json:"elementScoped,omitempty"`
}

type chatResponse struct {
	Reply   string          `json:"reply"`
	HTML    string          `json:"html"`
	Changed bool            `json:"changed"`
	State   bridge.Snapshot `json:"state"`
}

type transcriptMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type transcript struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Messages  []transcriptMessage      `json:"messages"`
	Component types.GeneratedComponent `json:"component"`
	Generator string                   `json:"generator,omitempty"`
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.bridge.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    version.GetShortVersion(),
		"generation": snap.Generation,
		"state":      snap.State,
		"clients":    s.hub.ClientCount(),
		"generator":  s.generatorName(),
	})
}

func (s *PreviewServer) handlePreview(w http.ResponseWriter, _ *http.Request) {
	snap := s.bridge.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-JSXLive-Generation", snap.Generation)
	_, _ = w.Write([]byte(snap.Document))
}

func (s *PreviewServer) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.Snapshot())
}

func (s *PreviewServer) handleSetComponent(w http.ResponseWriter, r *http.Request) {
	var req componentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)

		return
	}

	component := types.GeneratedComponent{JSX: req.JSX, CSS: req.CSS, LastModified: time.Now().UTC()}
	snap, err := s.bridge.SetComponent(r.Context(), component)
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	if err := s.saveComponent(r.Context(), snap.Component); err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *PreviewServer) handleReload(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w, r)(s.bridge.Reload(r.Context()))
}

func (s *PreviewServer) handleDisplay(w http.ResponseWriter, r *http.Request) {
	var req displayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)

		return
	}
	s.respondSnapshot(w, r)(s.bridge.SetShowGrid(r.Context(), req.ShowGrid))
}

func (s *PreviewServer) handleDeselect(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w, r)(s.bridge.Deselect(r.Context()))
}

func (s *PreviewServer) handleDismissError(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w, r)(s.bridge.DismissError(r.Context()))
}

func (s *PreviewServer) handlePanel(w http.ResponseWriter, r *http.Request) {
	snap := s.bridge.Snapshot()
	if snap.Selection == nil {
		s.writeError(w, r, jsxerrors.NewValidationError(jsxerrors.ErrCodeNoSelection, "no element is selected"))

		return
	}

	writeJSON(w, http.StatusOK, bridge.PanelValues(*snap.Selection))
}

func (s *PreviewServer) handleApplyProperty(w http.ResponseWriter, r *http.Request) {
	var req types.PropertyEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)

		return
	}

	before := s.bridge.Snapshot().Component.CSS
	snap, err := s.bridge.ApplyProperty(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	if snap.Component.CSS != before {
		if s.files != nil && s.files.CSS != "" {
			if err := s.files.WriteCSS(snap.Component.CSS); err != nil {
				s.writeError(w, r, err)

				return
			}
		}
		if err := s.saveComponent(r.Context(), snap.Component); err != nil {
			s.writeError(w, r, err)

			return
		}
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *PreviewServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.writeError(w, r, jsxerrors.NewConflictError(jsxerrors.ErrCodeGeneratorDisabled,
			"no generator provider is configured"))

		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)

		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, r, jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, "message is required"))

		return
	}

	ctx := r.Context()
	snap := s.bridge.Snapshot()
	prompt := req.Message
	if req.ElementScoped {
		if snap.Selection == nil {
			s.writeError(w, r, jsxerrors.NewValidationError(jsxerrors.ErrCodeNoSelection, "no element is selected"))

			return
		}
		prompt = bridge.ElementPrompt(*snap.Selection, req.Message)
	}

	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	sess, err := s.store.Get(ctx, s.sessionID)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	genCtx := ctx
	if timeout := s.config.Generator.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.generator.Generate(genCtx, generator.Request{
		Prompt:  prompt,
		History: history(sess.Messages),
		Current: snap.Component,
	})
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	sess.Append(generator.RoleUser, prompt)
	sess.Append(generator.RoleAssistant, result.Reply)

	if result.Changed {
		snap, err = s.bridge.SetComponent(ctx, result.Component)
		if err != nil {
			s.writeError(w, r, err)

			return
		}
		sess.Component = snap.Component
	}
	if err := s.store.Save(ctx, sess); err != nil {
		s.writeError(w, r, err)

		return
	}

	html, err := generator.RenderMarkdown(result.Reply)
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to render reply")
	}

	s.logger.Info(ctx, "Chat turn completed", "changed", result.Changed, "scoped", req.ElementScoped)
	writeJSON(w, http.StatusOK, chatResponse{Reply: result.Reply, HTML: html, Changed: result.Changed, State: snap})
}

func (s *PreviewServer) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), s.sessionID)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	out := transcript{
		ID:        sess.ID,
		Name:      sess.Name,
		Messages:  make([]transcriptMessage, 0, len(sess.Messages)),
		Component: sess.Component,
		Generator: s.generatorName(),
	}
	for _, m := range sess.Messages {
		msg := transcriptMessage{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
		if m.Role == generator.RoleAssistant {
			if html, err := generator.RenderMarkdown(m.Content); err == nil {
				msg.HTML = html
			}
		}
		out.Messages = append(out.Messages, msg)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *PreviewServer) handleClearSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s.sessMu.Lock()
	sess, err := s.store.Get(ctx, s.sessionID)
	if err == nil {
		sess.Clear()
		err = s.store.Save(ctx, sess)
	}
	s.sessMu.Unlock()
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.respondSnapshot(w, r)(s.bridge.ClearSession(ctx))
}

// respondSnapshot writes the result of a bridge command.
func (s *PreviewServer) respondSnapshot(w http.ResponseWriter, r *http.Request) func(bridge.Snapshot, error) {
	return func(snap bridge.Snapshot, err error) {
		if err != nil {
			s.writeError(w, r, err)

			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// saveComponent records component as the session's current component.
func (s *PreviewServer) saveComponent(ctx context.Context, component types.GeneratedComponent) error {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	sess, err := s.store.Get(ctx, s.sessionID)
	if err != nil {
		return err
	}
	sess.Component = component
	sess.UpdatedAt = time.Now().UTC()

	return s.store.Save(ctx, sess)
}

func (s *PreviewServer) generatorName() string {
	if s.generator == nil {
		return ""
	}

	return s.generator.Name()
}

func history(messages []session.Message) []generator.Turn {
	turns := make([]generator.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, generator.Turn{Role: m.Role, Content: m.Content})
	}

	return turns
}
