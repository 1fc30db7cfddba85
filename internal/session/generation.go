package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/videomind/internal/audit"
	"github.com/ziadkadry99/videomind/internal/generate"
	"github.com/ziadkadry99/videomind/internal/lifecycle"
	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// GenerationState is the progress of the most recent generation request.
type GenerationState string

const (
	GenerationIdle      GenerationState = "idle"
	GenerationRunning   GenerationState = "running"
	GenerationDone      GenerationState = "done"
	GenerationFailed    GenerationState = "failed"
	GenerationCancelled GenerationState = "cancelled"
)

// GenerationStatus describes the most recent generation request.
type GenerationStatus struct {
	Ticket     lifecycle.Ticket `json:"ticket,omitempty"`
	State      GenerationState  `json:"state"`
	Error      string           `json:"error,omitempty"`
	Kind       mindmap.Kind     `json:"kind,omitempty"`
	Attempts   int              `json:"attempts"`
	StartedAt  time.Time        `json:"started_at,omitempty"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
}

// ErrNotRetryable is returned by RetryGeneration when the last request did
// not fail or was superseded.
var ErrNotRetryable = errors.New("no failed generation to retry")

// StartGeneration supersedes any pending request and runs a new one in the
// background. The returned ticket identifies it.
func (s *Session) StartGeneration(req generate.Request) (lifecycle.Ticket, error) {
	if s.generator == nil {
		return "", ErrNoGenerator
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("session closed")
	}
	s.stopRunning()
	ticket := s.manager.BeginGeneration(req.Media)
	s.gen = GenerationStatus{Ticket: ticket, State: GenerationRunning, Attempts: 1, StartedAt: time.Now()}
	s.genReq = req
	s.launch(ticket, req)
	return ticket, nil
}

// RetryGeneration reruns a failed request under its original ticket.
func (s *Session) RetryGeneration() (lifecycle.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.manager.Pending()
	if s.closed || s.gen.State != GenerationFailed || !ok || pending != s.gen.Ticket {
		return "", ErrNotRetryable
	}
	s.gen.State = GenerationRunning
	s.gen.Attempts++
	s.gen.Error = ""
	s.gen.Kind = ""
	s.gen.FinishedAt = time.Time{}
	s.launch(s.gen.Ticket, s.genReq)
	return s.gen.Ticket, nil
}

// GenerationStatus returns the state of the most recent request.
func (s *Session) GenerationStatus() GenerationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// CancelGeneration abandons the pending request. A result arriving later is
// discarded.
func (s *Session) CancelGeneration(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, pending := s.manager.Pending()
	s.manager.CancelGeneration()
	running := s.stopRunning()
	if pending || running {
		s.record(ctx, audit.Entry{Action: audit.ActionCancel, Outcome: audit.OutcomeCommitted}, nil)
	}
}

// launch runs the generator outside the lock. Callers hold s.mu.
func (s *Session) launch(ticket lifecycle.Ticket, req generate.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), s.genTimeout)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		start := time.Now()
		res, err := s.generator.Generate(ctx, req)
		if s.metrics != nil {
			s.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
		}
		s.finishGeneration(ticket, req.Media, res, err)
	}()
}

// finishGeneration re-enters the lock and checks the ticket before anything
// else. Media handles of stale results are left to the manager, which settled
// them when the request was superseded.
func (s *Session) finishGeneration(ticket lifecycle.Ticket, media string, res generate.Result, genErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := context.Background()
	current := s.gen.Ticket == ticket

	if genErr != nil {
		err := s.manager.FailGeneration(ticket, genErr)
		if mindmap.IsKind(err, mindmap.KindStaleResult) {
			s.countGeneration("stale")
			s.record(ctx, audit.Entry{Action: audit.ActionGenerate, Outcome: audit.OutcomeDiscarded, Media: media}, err)
			return
		}
		if current {
			s.cancel = nil
			s.gen.State = GenerationFailed
			s.gen.Error = genErr.Error()
			s.gen.Kind = mindmap.KindOf(err)
			s.gen.FinishedAt = time.Now()
		}
		s.countGeneration("failed")
		s.record(ctx, audit.Entry{Action: audit.ActionGenerate, Outcome: audit.OutcomeFailed}, genErr)
		s.publishError(err)
		return
	}

	err := s.manager.CompleteGeneration(ticket, res.Data, res.Media)
	switch {
	case err == nil:
		if current {
			s.cancel = nil
			s.gen.State = GenerationDone
			s.gen.FinishedAt = time.Now()
		}
		s.countGeneration("committed")
		s.afterSwap(ctx, audit.ActionGenerate)
	case mindmap.IsKind(err, mindmap.KindStaleResult):
		s.countGeneration("stale")
		s.record(ctx, audit.Entry{Action: audit.ActionGenerate, Outcome: audit.OutcomeDiscarded, Media: res.Media}, err)
	default:
		if current {
			s.cancel = nil
			s.genReq.Media = ""
			s.gen.State = GenerationFailed
			s.gen.Error = err.Error()
			s.gen.Kind = mindmap.KindOf(err)
			s.gen.FinishedAt = time.Now()
		}
		s.countGeneration("rejected")
		s.record(ctx, audit.Entry{Action: audit.ActionGenerate, Outcome: audit.OutcomeRejected, Media: res.Media}, err)
		s.publishError(err)
	}
}

// stopRunning cancels the in-flight call, if any, and reports whether one
// was running. Callers hold s.mu.
func (s *Session) stopRunning() bool {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.gen.State != GenerationRunning && s.gen.State != GenerationFailed {
		return false
	}
	running := s.gen.State == GenerationRunning
	s.gen.State = GenerationCancelled
	s.gen.FinishedAt = time.Now()
	return running
}

// abandonGeneration is called after a swap, which supersedes any pending
// request.
func (s *Session) abandonGeneration() {
	if s.gen.State == GenerationDone {
		return
	}
	if _, pending := s.manager.Pending(); pending {
		return
	}
	s.stopRunning()
}

func (s *Session) countGeneration(outcome string) {
	if s.metrics != nil {
		s.metrics.Generations.WithLabelValues(outcome).Inc()
	}
}

func (s *Session) publishError(err error) {
	s.listener.Publish(Event{
		Type:    EventError,
		Index:   -1,
		Message: err.Error(),
		Kind:    string(mindmap.KindOf(err)),
		Version: s.manager.Version(),
	})
}
