package rsvp

import (
	"sync/atomic"
	"time"

	"github.com/rsvp-demo/project/internal/contracts"
)

// Store issues submission records from an in-process counter.
// The counter starts at zero with every new Store and is lost on restart.
type Store struct {
	seq atomic.Int64
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		Now: func() time.Time { return time.Now().UTC() },
	}
}

// Accept assumes the caller already validated children.
func (s *Store) Accept(children int) contracts.Submission {
	id := s.seq.Add(1)
	return contracts.Submission{
		ID:        id,
		Children:  children,
		Timestamp: contracts.FormatTimestamp(s.Now()),
	}
}

func (s *Store) Count() int64 {
	return s.seq.Load()
}
