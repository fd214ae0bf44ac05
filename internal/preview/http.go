package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"billgen/internal/api"
	"billgen/internal/logger"
	"billgen/internal/render"
	"billgen/pkg/models"
)

var errBillNotFound = errors.New("Bill not found")

// Server exposes preview sessions and downloads over HTTP.
type Server struct {
	manager  *Manager
	bills    BillSource
	renderer Renderer
	log      zerolog.Logger
	router   *mux.Router
}

// NewServer wires the routes.
func NewServer(m *Manager, bills BillSource, r Renderer) *Server {
	s := &Server{
		manager:  m,
		bills:    bills,
		renderer: r,
		log:      logger.WithComponent("preview-http"),
		router:   mux.NewRouter(),
	}

	s.router.Use(s.logRequests)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions", s.handleOpen).Methods(http.MethodPost)
	s.router.HandleFunc("/sessions/{sid}", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions/{sid}", s.handleClose).Methods(http.MethodDelete)
	s.router.HandleFunc("/sessions/{sid}/bill/{billID:[0-9]+}", s.handleShow).Methods(http.MethodPut)
	s.router.HandleFunc("/sessions/{sid}/retry", s.handleRetry).Methods(http.MethodPost)
	s.router.HandleFunc("/sessions/{sid}/document", s.handleDocument).Methods(http.MethodGet)
	s.router.HandleFunc("/bills/{billID:[0-9]+}/download", s.handleDownload).Methods(http.MethodGet)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Snapshot
	DocumentURL string `json:"document_url,omitempty"`
	RetryURL    string `json:"retry_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

func newSessionResponse(id string, snap Snapshot) sessionResponse {
	resp := sessionResponse{SessionID: id, Snapshot: snap}
	switch snap.Status {
	case StatusReady:
		resp.DocumentURL = fmt.Sprintf("/sessions/%s/document", id)
		resp.DownloadURL = fmt.Sprintf("/bills/%d/download", snap.BillID)
	case StatusFailed:
		resp.RetryURL = fmt.Sprintf("/sessions/%s/retry", id)
		resp.DownloadURL = fmt.Sprintf("/bills/%d/download", snap.BillID)
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessions":  s.manager.Len(),
		"artifacts": s.manager.Store().Len(),
	})
}

func (s *Server) handleOpen(w http.ResponseWriter, _ *http.Request) {
	session := s.manager.Open()
	writeJSON(w, http.StatusCreated, newSessionResponse(session.ID, session.Snapshot()))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := mux.Vars(r)["sid"]
	session, ok := s.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "preview session not found")
	}
	return session, ok
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session.ID, session.Snapshot()))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if !s.manager.CloseSession(mux.Vars(r)["sid"]) {
		writeError(w, http.StatusNotFound, "preview session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	id, ok := parseBillID(w, r)
	if !ok {
		return
	}
	s.show(w, r, session, id)
}

// show claims the session for the bill before fetching it, so a slow lookup
// cannot overwrite a bill requested after it.
func (s *Server) show(w http.ResponseWriter, r *http.Request, session *Session, id int64) {
	gen, err := session.Begin(id)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	bill, status, err := s.fetchBill(r.Context(), id)
	if err != nil {
		session.Fail(gen, err)
		writeError(w, status, err.Error())
		return
	}

	if _, err := session.ShowIf(gen, *bill); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, newSessionResponse(session.ID, session.Snapshot()))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	_, err := session.Retry()
	if errors.Is(err, ErrNothingToRetry) {
		// The bill itself failed to load; fetch it again.
		if id := session.Snapshot().BillID; id != 0 {
			s.show(w, r, session, id)
			return
		}
	}
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, newSessionResponse(session.ID, session.Snapshot()))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	doc, ready := session.Document()
	if !ready {
		writeJSON(w, http.StatusConflict, newSessionResponse(session.ID, session.Snapshot()))
		return
	}
	writePDF(w, doc.Data, fmt.Sprintf("inline; filename=%q", doc.FileName))
}

// handleDownload renders on demand. It is the primary download path and the
// fallback when a preview failed.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	bill, ok := s.loadBill(w, r)
	if !ok {
		return
	}

	data, err := s.renderer.Render(*bill)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("bill_id", bill.ID).Msg("Download render failed")
		writeError(w, http.StatusInternalServerError, "could not generate the invoice PDF, please try again")
		return
	}
	writePDF(w, data, fmt.Sprintf("attachment; filename=%q", render.FileName(bill.BillNumber)))
}

func (s *Server) loadBill(w http.ResponseWriter, r *http.Request) (*models.Bill, bool) {
	id, ok := parseBillID(w, r)
	if !ok {
		return nil, false
	}
	bill, status, err := s.fetchBill(r.Context(), id)
	if err != nil {
		writeError(w, status, err.Error())
		return nil, false
	}
	return bill, true
}

func parseBillID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["billID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bill id")
		return 0, false
	}
	return id, true
}

// fetchBill returns the enriched bill, or the HTTP status and user-facing
// error for a failed lookup.
func (s *Server) fetchBill(ctx context.Context, id int64) (*models.Bill, int, error) {
	bill, err := s.bills.EnrichedBill(ctx, id)
	switch {
	case err == nil && bill != nil:
		return bill, http.StatusOK, nil
	case err == nil, errors.Is(err, api.ErrNotFound):
		return nil, http.StatusNotFound, errBillNotFound
	default:
		zerolog.Ctx(ctx).Warn().Err(err).Int64("bill_id", id).Msg("Bill lookup failed")
		return nil, http.StatusBadGateway, errors.New(api.UserMessage(err))
	}
}

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// logRequests tags each request with an ID, reusing the caller's when given,
// and stores the tagged logger in the request context.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		log := s.log.With().Str("request_id", id).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(log.WithContext(r.Context())))

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Preview request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writePDF(w http.ResponseWriter, data []byte, disposition string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
