// Package service ties the pieces together: it owns the primary
// device tree, hands out partitioning sessions working on isolated
// playground copies, validates them and applies the winning session
// back transactionally.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/actions"
	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/check"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
	"github.com/rhinstaller/diskplanner/internal/partitioning"
)

// Session is one partitioning attempt: a strategy plus the playground
// it configured. Several sessions can exist side by side; applying
// one does not consume the others.
type Session struct {
	ID       uuid.UUID
	Method   partitioning.Method
	Strategy partitioning.Strategy

	playground *devicetree.DeviceTree
	configured bool
	report     *check.Report
}

// Playground returns the session's working tree. Nil until the
// session was configured.
func (s *Session) Playground() *devicetree.DeviceTree { return s.playground }

// Report returns the latest validation report, or nil.
func (s *Session) Report() *check.Report { return s.report }

// Service owns the primary device tree and the open sessions.
type Service struct {
	mu sync.Mutex

	current  *devicetree.DeviceTree
	sessions map[uuid.UUID]*Session

	checker     *check.Checker
	constraints check.Constraints

	subscribers []chan Event
}

// New creates a service with the default checker and constraints.
// The primary tree is unset until SetStorage is called.
func New() *Service {
	return &Service{
		sessions:    make(map[uuid.UUID]*Session),
		checker:     check.NewChecker(),
		constraints: check.DefaultConstraints(),
	}
}

// SetConstraints replaces the constraint set used for validation.
func (s *Service) SetConstraints(c check.Constraints) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints = c
}

// Checker exposes the checker, e.g. to skip individual checks.
func (s *Service) Checker() *check.Checker {
	return s.checker
}

// SetStorage installs the scanned system tree as the primary tree.
func (s *Service) SetStorage(t *devicetree.DeviceTree) {
	s.mu.Lock()
	s.current = t
	s.mu.Unlock()
	logrus.Debugf("service: storage model set, %d device(s)", len(t.Devices()))
	s.emit(Event{Kind: EventStorageChanged})
}

// Storage returns the primary tree.
func (s *Service) Storage() (*devicetree.DeviceTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, &UnavailableStorageError{}
	}
	return s.current, nil
}

// CreatePartitioning opens a new session for the method. The session
// starts with an unconfigured playground copy of the primary tree.
func (s *Service) CreatePartitioning(method partitioning.Method, cfg partitioning.Config) (*Session, error) {
	strategy, err := partitioning.New(method, cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, &UnavailableStorageError{}
	}
	session := &Session{
		ID:         uuid.New(),
		Method:     method,
		Strategy:   strategy,
		playground: s.current.Copy(),
	}
	s.sessions[session.ID] = session
	s.mu.Unlock()

	logrus.Infof("service: created %s partitioning %s", method, session.ID)
	s.emit(Event{Kind: EventPartitioningCreated, Session: session.ID, Method: method})
	return session, nil
}

// Session returns an open session by id.
func (s *Service) Session(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown partitioning session %s", id)
	}
	return session, nil
}

// DiscardPartitioning drops an open session.
func (s *Service) DiscardPartitioning(id uuid.UUID) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.emit(Event{Kind: EventPartitioningDiscarded, Session: id, Method: session.Method})
	}
}

// Configure runs the session's strategy on a fresh playground copy of
// the primary tree. On failure the session keeps its previous
// playground; the error is classified as a bootloader or a storage
// configuration error.
func (s *Service) Configure(session *Session) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return &UnavailableStorageError{}
	}
	playground := s.current.Copy()
	s.mu.Unlock()

	if err := session.Strategy.Configure(playground); err != nil {
		var bootErr *bootloader.ConfigurationError
		if errors.As(err, &bootErr) {
			return &BootloaderConfigurationError{Err: err}
		}
		return &StorageConfigurationError{Err: err}
	}

	s.mu.Lock()
	session.playground = playground
	session.configured = true
	session.report = nil
	s.mu.Unlock()

	logrus.Infof("service: configured %s partitioning %s", session.Method, session.ID)
	s.emit(Event{Kind: EventPartitioningConfigured, Session: session.ID, Method: session.Method})
	return nil
}

// Validate checks the session's playground. Validation never fails
// hard; all findings end up in the report. Repeated runs on an
// unchanged playground return the same findings.
func (s *Service) Validate(session *Session) *check.Report {
	s.mu.Lock()
	st := &check.State{
		Tree:        session.playground,
		Boot:        session.Strategy.Bootloader(),
		Constraints: s.constraints,
	}
	s.mu.Unlock()

	report := s.checker.Check(st)

	s.mu.Lock()
	session.report = report
	s.mu.Unlock()

	s.emit(Event{Kind: EventPartitioningValidated, Session: session.ID, Method: session.Method})
	return report
}

// Apply makes the session's playground the primary tree. The
// playground is re-validated first; an invalid one is refused and the
// primary tree stays untouched. The scheduled actions are executed
// with the given executor before the swap.
func (s *Service) Apply(ctx context.Context, session *Session, exec actions.Executor, progress actions.Progress) error {
	if !session.configured {
		return &StorageConfigurationError{Err: errors.New("partitioning has not been configured")}
	}

	report := s.Validate(session)
	if !report.Valid() {
		return &InvalidStorageError{Findings: report.Errors}
	}

	if exec == nil {
		exec = &actions.NullExecutor{}
	}
	if err := session.playground.Journal().Apply(ctx, exec, progress); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = session.playground
	// the applied playground is the new reality, hand the session a
	// fresh copy so further edits stay isolated
	session.playground = s.current.Copy()
	s.mu.Unlock()

	logrus.Infof("service: applied %s partitioning %s", session.Method, session.ID)
	s.emit(Event{Kind: EventPartitioningApplied, Session: session.ID, Method: session.Method})
	s.emit(Event{Kind: EventStorageChanged})
	return nil
}
