package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

// StubProvider is a test double for providers.DataProvider.
// Errs, when set, is consumed one entry per snapshot call before falling back to Err.
type StubProvider struct {
	Snapshot   bracket.Snapshot
	Tables     []bracket.Table
	Err        error
	Errs       []error
	Calls      atomic.Int32
	TableCalls atomic.Int32
	Notify     chan struct{}

	mu sync.Mutex
}

// FetchSnapshot returns the configured snapshot and error while tracking calls.
func (s *StubProvider) FetchSnapshot(ctx context.Context, tournamentID string) (bracket.Snapshot, error) {
	_ = ctx
	_ = tournamentID
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
	s.Calls.Add(1)
	if err := s.nextErr(); err != nil {
		return bracket.Snapshot{}, err
	}
	return s.Snapshot, nil
}

// FetchTables returns the configured tables.
func (s *StubProvider) FetchTables(ctx context.Context, tournamentID string) ([]bracket.Table, error) {
	_ = ctx
	_ = tournamentID
	s.TableCalls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Tables, nil
}

func (s *StubProvider) nextErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Errs) > 0 {
		err := s.Errs[0]
		s.Errs = s.Errs[1:]
		return err
	}
	return s.Err
}
