package web

import (
	"bytes"
	"net/http"

	"github.com/dmitrijs2005/gophblog/internal/server/auth"
)

// view starts a ViewData for r with the attached identity and any pending
// flash messages already filled in.
func (h *handlers) view(r *http.Request, title, description, route string) *ViewData {
	_, attached := auth.AttachedUser(r.Context())
	return &ViewData{
		Title:         title,
		Description:   description,
		CurrentRoute:  route,
		Authenticated: attached,
		Flash:         h.popFlash(r),
		Status:        http.StatusOK,
	}
}

// render buffers the page so a template error never leaves a half-written
// response behind.
func (h *handlers) render(w http.ResponseWriter, r *http.Request, name string, data *ViewData) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, name, data); err != nil {
		h.logger.Error(r.Context(), "render failed", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status := data.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	data := h.view(r, "Not found", "", "")
	data.Status = http.StatusNotFound
	h.render(w, r, "error", data)
}

// serverError logs err and shows the generic error page.
func (h *handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	data := &ViewData{Title: "Error", Status: http.StatusInternalServerError}
	_, data.Authenticated = auth.AttachedUser(r.Context())
	h.render(w, r, "error", data)
}

func (h *handlers) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// flash queues msg for the next page this browser renders. Failing to
// store it is logged and otherwise ignored.
func (h *handlers) flash(w http.ResponseWriter, r *http.Request, msg string) {
	sid := h.sessions.Read(r)
	if sid == "" {
		id, err := h.flashes.NewSessionID()
		if err != nil {
			h.logger.Error(r.Context(), "session id failed", "error", err)
			return
		}
		if err := h.sessions.Write(w, id); err != nil {
			h.logger.Error(r.Context(), "session cookie failed", "error", err)
			return
		}
		sid = id
	}
	if err := h.flashes.Push(r.Context(), sid, msg); err != nil {
		h.logger.Error(r.Context(), "flash push failed", "error", err)
	}
}

func (h *handlers) popFlash(r *http.Request) []string {
	sid := h.sessions.Read(r)
	if sid == "" {
		return nil
	}
	msgs, err := h.flashes.Pop(r.Context(), sid)
	if err != nil {
		h.logger.Error(r.Context(), "flash pop failed", "error", err)
		return nil
	}
	return msgs
}
