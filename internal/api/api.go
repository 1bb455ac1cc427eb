package api

import (
	"bufio"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/accessibility"
	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/export"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/logging"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/notice"
	"github.com/joescharf/pinpoint/internal/overlay"
	"github.com/joescharf/pinpoint/internal/presence"
	"github.com/joescharf/pinpoint/internal/remote"
	"github.com/joescharf/pinpoint/internal/shortcuts"
	"github.com/joescharf/pinpoint/internal/store"
)

// Request headers identifying the acting user on mutations.
const (
	HeaderUserID   = "X-Pinpoint-User"
	HeaderUserName = "X-Pinpoint-User-Name"
)

// Deps are the components the server exposes. Store is required; missing
// components get defaults, except Presence, whose routes answer 503 without it.
type Deps struct {
	Store     store.Store
	Comments  *comments.Service
	Overlay   *insights.Overlay
	Presence  *presence.Hub
	Settings  *accessibility.Controller
	Overlays  *overlay.Manager
	Shortcuts *shortcuts.Registry
	Announcer *shortcuts.Announcer
	ExportDir string
	Logger    *zap.Logger
}

// Server holds dependencies for the REST API handlers.
type Server struct {
	store      store.Store
	comments   *comments.Service
	overlay    *insights.Overlay
	exporter   *export.Exporter
	downloader export.Downloader
	hub        *presence.Hub
	settings   *accessibility.Controller
	overlays   *overlay.Manager
	shortcuts  *shortcuts.Registry
	announcer  *shortcuts.Announcer
	actions    *remote.Dispatcher
	log        *zap.Logger
	now        func() time.Time
}

// NewServer creates a new API server.
func NewServer(d Deps) (*Server, error) {
	log := logging.OrNop(d.Logger).With(zap.String("component", "api"))
	s := &Server{
		store:      d.Store,
		comments:   d.Comments,
		overlay:    d.Overlay,
		exporter:   export.NewExporter(log),
		downloader: export.Downloader{Dir: d.ExportDir},
		hub:        d.Presence,
		settings:   d.Settings,
		overlays:   d.Overlays,
		shortcuts:  d.Shortcuts,
		announcer:  d.Announcer,
		log:        log,
		now:        time.Now,
	}
	if s.comments == nil {
		s.comments = comments.NewService(d.Store, comments.WithLogger(log))
	}
	if s.overlay == nil {
		s.overlay = insights.NewOverlay(d.Store, insights.NewLexicon(), log)
	}
	if s.settings == nil {
		s.settings = accessibility.NewController(accessibility.Defaults(), nil)
	}
	if s.overlays == nil {
		s.overlays = overlay.NewManager()
	}
	if s.shortcuts == nil {
		reg, ann, err := shortcuts.NewDefaultRegistry(shortcuts.Env{Settings: s.settings, Overlays: s.overlays}, shortcuts.DefaultAnnouncementLimit, log)
		if err != nil {
			return nil, fmt.Errorf("build shortcut registry: %w", err)
		}
		s.shortcuts, s.announcer = reg, ann
	}
	s.actions = s.actionDispatcher()
	return s, nil
}

// Router returns an http.Handler with all API routes registered.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Media
	mux.HandleFunc("GET /api/v1/media", s.listMedia)
	mux.HandleFunc("POST /api/v1/media", s.createMedia)
	mux.HandleFunc("GET /api/v1/media/{id}", s.getMedia)
	mux.HandleFunc("DELETE /api/v1/media/{id}", s.deleteMedia)
	mux.HandleFunc("GET /api/v1/media/{id}/comments", s.listMediaComments)

	// Comments
	mux.HandleFunc("GET /api/v1/comments", s.listComments)
	mux.HandleFunc("POST /api/v1/comments", s.createComment)
	mux.HandleFunc("POST /api/v1/comments/bulk-status", s.bulkSetStatus)
	mux.HandleFunc("GET /api/v1/comments/{id}", s.getComment)
	mux.HandleFunc("PUT /api/v1/comments/{id}", s.updateComment)
	mux.HandleFunc("DELETE /api/v1/comments/{id}", s.deleteComment)
	mux.HandleFunc("POST /api/v1/comments/{id}/replies", s.createReply)
	mux.HandleFunc("POST /api/v1/comments/{id}/resolve", s.resolveComment)

	// Saved filters
	mux.HandleFunc("GET /api/v1/filters", s.listFilters)
	mux.HandleFunc("POST /api/v1/filters", s.createFilter)
	mux.HandleFunc("POST /api/v1/filters/{id}/load", s.loadFilter)
	mux.HandleFunc("DELETE /api/v1/filters/{id}", s.deleteFilter)

	// Export
	mux.HandleFunc("POST /api/v1/export", s.exportComments)
	mux.HandleFunc("POST /api/v1/export/estimate", s.estimateExport)

	// AI overlay
	mux.HandleFunc("POST /api/v1/analysis", s.runAnalysis)
	mux.HandleFunc("GET /api/v1/analysis", s.getInsights)

	// Remote actions
	mux.HandleFunc("POST /api/v1/actions", s.dispatchAction)

	// Presence
	mux.HandleFunc("GET /api/v1/presence", s.getPresence)
	mux.HandleFunc("POST /api/v1/presence", s.publishPresence)
	mux.HandleFunc("GET /api/v1/presence/ws", s.presenceWS)

	// Shortcuts and accessibility
	mux.HandleFunc("GET /api/v1/shortcuts", s.listShortcuts)
	mux.HandleFunc("PUT /api/v1/shortcuts/{id}", s.updateShortcut)
	mux.HandleFunc("POST /api/v1/shortcuts/{id}/trigger", s.triggerShortcut)
	mux.HandleFunc("POST /api/v1/shortcuts/press", s.pressKey)
	mux.HandleFunc("GET /api/v1/announcements", s.listAnnouncements)
	mux.HandleFunc("GET /api/v1/overlay", s.getOverlay)
	mux.HandleFunc("GET /api/v1/accessibility", s.getAccessibility)
	mux.HandleFunc("PUT /api/v1/accessibility", s.updateAccessibility)

	return corsMiddleware(s.logMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderUserID+", "+HeaderUserName)
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status. It forwards Hijack so the
// presence websocket can upgrade through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type failureBody struct {
	Error  string        `json:"error"`
	Notice notice.Notice `json:"notice"`
}

// writeFailure reports a failed operation as a notice, with the status derived from its category.
func (s *Server) writeFailure(w http.ResponseWriter, op, entity string, err error) {
	n := notice.Failure(op, entity, err)
	status := http.StatusInternalServerError
	switch n.Category {
	case notice.CategoryValidation:
		status = http.StatusBadRequest
	case notice.CategoryNotFound:
		status = http.StatusNotFound
	case notice.CategoryRemote:
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.log.Error("operation failed", zap.String("op", op), zap.String("entity", entity), zap.Error(err))
	}
	writeJSON(w, status, failureBody{Error: n.Message, Notice: n})
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// actor identifies the user behind a request from the identity headers.
func actor(r *http.Request) models.User {
	id := r.Header.Get(HeaderUserID)
	return models.User{ID: id, Name: cmp.Or(r.Header.Get(HeaderUserName), id)}
}

// --- Media ---

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	media, err := s.comments.ListMedia(r.Context())
	if err != nil {
		s.writeFailure(w, "list media", "", err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

func (s *Server) createMedia(w http.ResponseWriter, r *http.Request) {
	var m models.MediaFile
	if !decode(w, r, &m) {
		return
	}
	if err := s.comments.AddMedia(r.Context(), &m); err != nil {
		s.writeFailure(w, "add media", m.Name, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, err := s.comments.GetMedia(r.Context(), id)
	if err != nil {
		s.writeFailure(w, "get media", id, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.comments.DeleteMedia(r.Context(), id); err != nil {
		s.writeFailure(w, "delete media", id, err)
		return
	}
	writeJSON(w, http.StatusOK, notice.Success("delete media", id))
}

// --- Comments ---

func (s *Server) listMediaComments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.comments.GetMedia(r.Context(), id); err != nil {
		s.writeFailure(w, "list comments", id, err)
		return
	}
	s.writeComments(w, r, id)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	s.writeComments(w, r, r.URL.Query().Get("media"))
}

// writeComments answers with the comments of mediaID filtered by the query
// parameters and ordered by "sort".
func (s *Server) writeComments(w http.ResponseWriter, r *http.Request, mediaID string) {
	q := r.URL.Query()
	criteria, err := filter.ParseQuery(q, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := filter.ParseOrder(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.comments.List(r.Context(), mediaID, criteria, order)
	if err != nil {
		s.writeFailure(w, "list comments", mediaID, err)
		return
	}
	w.Header().Set("X-Active-Filters", strconv.Itoa(filter.ActiveCount(criteria)))
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var c models.Comment
	if !decode(w, r, &c) {
		return
	}
	if c.Author.ID == "" {
		c.Author = actor(r)
	}
	if err := s.comments.Add(r.Context(), &c); err != nil {
		s.writeFailure(w, "add comment", c.MediaID, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.comments.Get(r.Context(), id)
	if err != nil {
		s.writeFailure(w, "get comment", id, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var p comments.Patch
	if !decode(w, r, &p) {
		return
	}
	c, err := s.comments.Update(r.Context(), id, p, actor(r))
	if err != nil {
		s.writeFailure(w, "update comment", id, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.comments.Delete(r.Context(), id, actor(r)); err != nil {
		s.writeFailure(w, "delete comment", id, err)
		return
	}
	writeJSON(w, http.StatusOK, notice.Success("delete comment", id))
}

func (s *Server) createReply(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var reply models.Reply
	if !decode(w, r, &reply) {
		return
	}
	if reply.Author.ID == "" {
		reply.Author = actor(r)
	}
	c, err := s.comments.Reply(r.Context(), id, &reply)
	if err != nil {
		s.writeFailure(w, "reply", id, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) resolveComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.comments.Resolve(r.Context(), id, actor(r))
	if err != nil {
		s.writeFailure(w, "resolve comment", id, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) bulkSetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs    []string             `json:"ids"`
		Status models.CommentStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}
	n, err := s.comments.BulkSetStatus(r.Context(), req.IDs, req.Status, actor(r))
	if err != nil {
		s.writeFailure(w, "set status", string(req.Status), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// --- Saved filters ---

func (s *Server) listFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := s.comments.ListFilters(r.Context())
	if err != nil {
		s.writeFailure(w, "list saved filters", "", err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

func (s *Server) createFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string          `json:"name"`
		Criteria models.Criteria `json:"criteria"`
	}
	if !decode(w, r, &req) {
		return
	}
	f, err := s.comments.SaveFilter(r.Context(), req.Name, req.Criteria)
	if err != nil {
		s.writeFailure(w, "save filter", req.Name, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) loadFilter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	criteria, f, err := s.comments.LoadFilter(r.Context(), id)
	if err != nil {
		s.writeFailure(w, "load filter", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":         f,
		"criteria":       criteria,
		"active_count":   filter.ActiveCount(criteria),
		"extended_count": filter.ExtendedActiveCount(criteria),
	})
}

func (s *Server) deleteFilter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.comments.DeleteFilter(r.Context(), id); err != nil {
		s.writeFailure(w, "delete filter", id, err)
		return
	}
	writeJSON(w, http.StatusOK, notice.Success("delete filter", id))
}

// --- Export ---

type exportRequest struct {
	MediaID  string          `json:"media_id"`
	Criteria models.Criteria `json:"criteria"`
	Options  json.RawMessage `json:"options"`
}

// prepareExport decodes the request and gathers its input. It writes the
// error response itself and reports false on failure.
func (s *Server) prepareExport(w http.ResponseWriter, r *http.Request) (export.Input, export.Options, bool) {
	var req exportRequest
	if !decode(w, r, &req) {
		return export.Input{}, export.Options{}, false
	}
	opts, err := export.DecodeOptions(req.Options)
	if err != nil {
		s.writeFailure(w, "export", req.MediaID, err)
		return export.Input{}, export.Options{}, false
	}
	in, err := export.Gather(r.Context(), s.comments, s.overlay, req.MediaID, req.Criteria, opts.Include.AIAnalysis)
	if err != nil {
		s.writeFailure(w, "export", req.MediaID, err)
		return export.Input{}, export.Options{}, false
	}
	return in, opts, true
}

func (s *Server) exportComments(w http.ResponseWriter, r *http.Request) {
	in, opts, ok := s.prepareExport(w, r)
	if !ok {
		return
	}
	res, err := s.exporter.Export(r.Context(), in, opts)
	if err != nil {
		s.writeFailure(w, "export", string(opts.Format), err)
		return
	}
	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Export-Id", res.ID)
	w.Header().Set("X-Export-Comments", strconv.Itoa(res.Comments))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

func (s *Server) estimateExport(w http.ResponseWriter, r *http.Request) {
	in, opts, ok := s.prepareExport(w, r)
	if !ok {
		return
	}
	doc, err := s.exporter.Preview(in, opts)
	if err != nil {
		s.writeFailure(w, "estimate export", string(opts.Format), err)
		return
	}
	size := doc.EstimatedSize()
	writeJSON(w, http.StatusOK, map[string]any{
		"format":   opts.Format,
		"comments": len(doc.Comments),
		"groups":   len(doc.Groups),
		"bytes":    size,
		"human":    export.HumanSize(size),
	})
}

// --- AI overlay ---

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MediaID  string          `json:"media_id"`
		Criteria models.Criteria `json:"criteria"`
	}
	if !decode(w, r, &req) {
		return
	}
	list, err := s.comments.List(r.Context(), req.MediaID, req.Criteria, filter.DefaultOrder)
	if err != nil {
		s.writeFailure(w, "analyze", req.MediaID, err)
		return
	}
	analyses, err := s.overlay.Run(r.Context(), list)
	if err != nil {
		s.writeFailure(w, "analyze", req.MediaID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analyzer": s.overlay.Analyzer().Name(),
		"analyses": analyses,
	})
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, err := filter.ParseQuery(q, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := export.Gather(r.Context(), s.comments, s.overlay, q.Get("media"), criteria, true)
	if err != nil {
		s.writeFailure(w, "insights", q.Get("media"), err)
		return
	}
	writeJSON(w, http.StatusOK, in.Insights)
}

// --- Remote actions ---

func (s *Server) dispatchAction(w http.ResponseWriter, r *http.Request) {
	var req remote.Request
	if !decode(w, r, &req) {
		return
	}
	var ref struct {
		ID      string `json:"id"`
		MediaID string `json:"media_id"`
	}
	_ = json.Unmarshal(req.Params, &ref)
	entity := cmp.Or(ref.ID, ref.MediaID)

	out, err := s.actions.Dispatch(r.Context(), req)
	if errors.Is(err, remote.ErrUnknownAction) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeFailure(w, req.Action, entity, err)
		return
	}
	resp := remote.Response{OK: true, Message: notice.Success(req.Action, entity).Message}
	if out != nil {
		raw, err := json.Marshal(out)
		if err != nil {
			s.writeFailure(w, req.Action, entity, err)
			return
		}
		resp.Result = raw
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Presence ---

func (s *Server) presenceDisabled(w http.ResponseWriter) bool {
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "presence feed is disabled")
		return true
	}
	return false
}

func (s *Server) getPresence(w http.ResponseWriter, r *http.Request) {
	if s.presenceDisabled(w) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recent": s.hub.Recent(),
		"active": s.hub.Active(),
	})
}

func (s *Server) publishPresence(w http.ResponseWriter, r *http.Request) {
	if s.presenceDisabled(w) {
		return
	}
	var ev presence.Event
	if !decode(w, r, &ev) {
		return
	}
	if ev.UserID == "" {
		u := actor(r)
		ev.UserID, ev.UserName = u.ID, u.Name
	}
	ev, err := s.hub.Publish(ev)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, ev)
}

func (s *Server) presenceWS(w http.ResponseWriter, r *http.Request) {
	if s.presenceDisabled(w) {
		return
	}
	s.hub.ServeWS(w, r)
}

// --- Shortcuts and accessibility ---

func shortcutStatus(err error) int {
	switch {
	case errors.Is(err, shortcuts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shortcuts.ErrNotCustomizable), errors.Is(err, shortcuts.ErrDisabled):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (s *Server) listShortcuts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"shortcuts": s.shortcuts.List(),
		"conflicts": s.shortcuts.Conflicts(),
	})
}

func (s *Server) updateShortcut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Keys    []string `json:"keys"`
		Enabled *bool    `json:"enabled"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Keys != nil {
		if err := s.shortcuts.Rebind(id, req.Keys); err != nil {
			writeError(w, shortcutStatus(err), err.Error())
			return
		}
	}
	if req.Enabled != nil {
		if err := s.shortcuts.SetEnabled(id, *req.Enabled); err != nil {
			writeError(w, shortcutStatus(err), err.Error())
			return
		}
	}
	sc, err := s.shortcuts.Get(id)
	if err != nil {
		writeError(w, shortcutStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) triggerShortcut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	msg, err := s.shortcuts.Trigger(id)
	if err != nil {
		writeError(w, shortcutStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "announcement": msg})
}

func (s *Server) pressKey(w http.ResponseWriter, r *http.Request) {
	var ev shortcuts.KeyEvent
	if !decode(w, r, &ev) {
		return
	}
	id, msg, err := s.shortcuts.HandleEvent(ev)
	if err != nil {
		writeError(w, shortcutStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "announcement": msg})
}

func (s *Server) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	var recent []string
	if s.announcer != nil {
		recent = s.announcer.Recent()
	}
	writeJSON(w, http.StatusOK, recent)
}

func (s *Server) getOverlay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.overlays.Current())
}

func (s *Server) getAccessibility(w http.ResponseWriter, r *http.Request) {
	cur := s.settings.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"settings":     cur,
		"presentation": accessibility.Apply(cur),
	})
}

func (s *Server) updateAccessibility(w http.ResponseWriter, r *http.Request) {
	next := s.settings.Get()
	if !decode(w, r, &next) {
		return
	}
	updated, err := s.settings.Update(func(accessibility.Settings) accessibility.Settings { return next })
	if err != nil {
		s.writeFailure(w, "update accessibility settings", "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"settings":     updated,
		"presentation": accessibility.Apply(updated),
	})
}
