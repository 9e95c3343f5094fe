package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
)

var (
	// ErrNoSession is returned when the patient has not opened the wizard or it expired.
	ErrNoSession = apperr.New(apperr.ErrNotFound, "wizard", "Open the assistant to start a new conversation.")
	// ErrStaleToken is returned for writes that carry the token of an earlier run.
	ErrStaleToken = apperr.New(apperr.ErrConflict, "wizard", "This conversation was restarted. Continue in the latest one.")
	// ErrGenerating refuses an answer while a plan is being generated.
	ErrGenerating = apperr.New(apperr.ErrConflict, "wizard", "Your diet plan is still being generated.")
	// ErrRestartRequired refuses answers after a failed generation until the wizard is reopened.
	ErrRestartRequired = apperr.New(apperr.ErrInvalidState, "wizard", restartHint)
	// ErrFinished refuses answers once the plan is ready.
	ErrFinished = apperr.New(apperr.ErrInvalidState, "wizard", "Your diet plan is ready. Reopen the assistant to start over.")
)

// Store persists wizard sessions keyed by patient id.
type Store interface {
	Get(ctx context.Context, patientID string) (*Session, error)
	// Put replaces the session unconditionally. Open uses it to start a new run.
	Put(ctx context.Context, s *Session) error
	// Update loads the session, checks its token and applies fn atomically.
	// Nothing is written when fn returns an error.
	Update(ctx context.Context, patientID, token string, fn func(*Session) error) (*Session, error)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session *Session
	expires time.Time
}

// NewMemoryStore builds an in-process store. ttl <= 0 keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, patientID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(patientID)
	if !ok {
		return nil, ErrNoSession
	}
	return clone(entry.session)
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	copied, err := clone(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(copied)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, patientID, token string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(patientID)
	if !ok {
		return nil, ErrNoSession
	}
	if entry.session.Token != token {
		return nil, ErrStaleToken
	}
	working, err := clone(entry.session)
	if err != nil {
		return nil, err
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	m.store(working)
	return clone(working)
}

func (m *MemoryStore) lookup(patientID string) (memoryEntry, bool) {
	entry, ok := m.sessions[patientID]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		delete(m.sessions, patientID)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryStore) store(s *Session) {
	entry := memoryEntry{session: s}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.sessions[s.PatientID] = entry
}
