package preview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"billgen/internal/logger"
	"billgen/internal/render"
	"billgen/pkg/models"
)

var (
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("preview session is closed")

	// ErrNothingToRetry is returned by Retry before any bill was shown.
	ErrNothingToRetry = errors.New("no bill to retry")
)

// Status is the state of a session's document.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	Status     Status `json:"status"`
	BillID     int64  `json:"bill_id,omitempty"`
	BillNumber string `json:"bill_number,omitempty"`
	ArtifactID string `json:"artifact_id,omitempty"`
	// FileName is the download name, also offered as the fallback when
	// generation failed.
	FileName   string `json:"file_name,omitempty"`
	Error      string `json:"error,omitempty"`
	Generation uint64 `json:"generation"`
}

// Session is one preview pane. Show starts generating in the background and
// returns immediately; only the result of the latest Show for the current bill
// is ever committed.
type Session struct {
	ID string

	renderer Renderer
	store    *Store
	log      zerolog.Logger

	mu sync.Mutex
	// billID is the bill last asked for; bill stays nil until it is loaded.
	billID     int64
	bill       *models.Bill
	generation uint64
	status     Status
	artifactID string
	err        error
	closed     bool

	inflight sync.WaitGroup
}

// NewSession creates an idle session.
func NewSession(id string, r Renderer, store *Store) *Session {
	return &Session{
		ID:       id,
		renderer: r,
		store:    store,
		status:   StatusIdle,
		log:      logger.WithComponent("preview").With().Str("session", id).Logger(),
	}
}

// Show switches the session to bill and starts generating its document. The
// previous document is released right away.
func (s *Session) Show(bill models.Bill) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	gen := s.beginLocked(bill.ID)
	s.startLocked(gen, bill)
	return gen, nil
}

// Begin claims the session for billID before the bill is loaded. The previous
// document is released and the session reports loading. The returned
// generation is handed to ShowIf or Fail once the bill is available.
func (s *Session) Begin(billID int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	return s.beginLocked(billID), nil
}

// ShowIf starts generating bill only while gen is still the latest request
// for it. It reports false when a later request took over the session.
func (s *Session) ShowIf(gen uint64, bill models.Bill) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSessionClosed
	}
	if gen != s.generation || bill.ID != s.billID {
		s.log.Debug().
			Int64("bill_id", bill.ID).
			Uint64("generation", gen).
			Msg("Skipping superseded preview request")
		return false, nil
	}
	s.startLocked(gen, bill)
	return true, nil
}

// Fail marks request gen as failed when the bill could not be loaded. It is a
// no-op once a later request took over the session.
func (s *Session) Fail(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		return false
	}
	s.status = StatusFailed
	s.err = err
	return true
}

// Retry generates the current bill again, typically after a failure.
func (s *Session) Retry() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	if s.bill == nil {
		return 0, ErrNothingToRetry
	}
	bill := *s.bill
	gen := s.beginLocked(bill.ID)
	s.startLocked(gen, bill)
	return gen, nil
}

func (s *Session) beginLocked(billID int64) uint64 {
	s.releaseLocked()

	s.generation++
	s.billID = billID
	s.bill = nil
	s.status = StatusLoading
	s.err = nil
	return s.generation
}

func (s *Session) startLocked(gen uint64, bill models.Bill) {
	s.bill = &bill

	s.inflight.Add(1)
	go s.generate(gen, bill)

	s.log.Debug().
		Int64("bill_id", bill.ID).
		Uint64("generation", gen).
		Msg("Preview generation started")
}

func (s *Session) generate(gen uint64, bill models.Bill) {
	defer s.inflight.Done()

	data, err := s.render(bill)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation || s.bill == nil || s.bill.ID != bill.ID {
		s.log.Debug().
			Int64("bill_id", bill.ID).
			Uint64("generation", gen).
			Msg("Discarding stale preview result")
		return
	}

	if err != nil {
		s.status = StatusFailed
		s.err = err
		s.log.Warn().Err(err).Int64("bill_id", bill.ID).Msg("Preview generation failed")
		return
	}

	a := s.store.Put(bill.ID, render.FileName(bill.BillNumber), data)
	s.artifactID = a.ID
	s.status = StatusReady
}

// render shields the session from a panicking renderer.
func (s *Session) render(bill models.Bill) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &render.RenderError{Op: "Render", BillNumber: bill.BillNumber, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return s.renderer.Render(bill)
}

// Snapshot reports the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:     s.status,
		ArtifactID: s.artifactID,
		Generation: s.generation,
		BillID:     s.billID,
	}
	if s.bill != nil {
		snap.BillNumber = s.bill.BillNumber
		snap.FileName = render.FileName(s.bill.BillNumber)
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// Document returns the ready artifact, if any.
func (s *Session) Document() (Artifact, bool) {
	s.mu.Lock()
	id := s.artifactID
	s.mu.Unlock()

	if id == "" {
		return Artifact{}, false
	}
	return s.store.Get(id)
}

// Close releases the document and ignores any generation still running.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.releaseLocked()
	s.billID = 0
	s.bill = nil
	s.status = StatusIdle
	s.err = nil
}

// Wait blocks until every generation started so far has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) releaseLocked() {
	if s.artifactID != "" {
		s.store.Release(s.artifactID)
		s.artifactID = ""
	}
}
