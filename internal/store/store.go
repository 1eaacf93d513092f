package store

import (
	"context"
	"fmt"

	"wordpoll/internal/domain"
)

// Store persists poll configuration and submitted words.
//
// Stores are write-through targets: the app layer holds the authoritative
// in-memory state and serializes every call for the same question, so
// implementations only need to be safe for concurrent calls on different
// questions.
type Store interface {
	// Load returns the stored state for n questions, or the initial state
	// when nothing usable is stored.
	Load(ctx context.Context, n int) (Snapshot, error)
	SaveConfig(ctx context.Context, cfg domain.PollConfig) error
	// AppendWords stores words for a question. offset is the number of words
	// the question held before this append.
	AppendWords(ctx context.Context, question, offset int, words []string) error
	// Reset drops all words and stores the initial config for n questions.
	Reset(ctx context.Context, n int) error
	Close() error
}

// Snapshot is the persisted state of a poll
type Snapshot struct {
	Config domain.PollConfig
	Words  [][]string
}

// NewSnapshot returns the initial state for n questions
func NewSnapshot(n int) Snapshot {
	return Snapshot{
		Config: domain.NewPollConfig(n),
		Words:  make([][]string, n),
	}
}

// Driver names accepted by Open
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Options selects and configures a backend
type Options struct {
	Driver        string
	PollID        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open creates the backend named by opts.Driver
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		s, err := OpenSQL(ctx, opts.Driver, opts.DatabaseURL, opts.PollID)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverRedis:
		s, err := OpenRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.PollID)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// sanitize drops stored state that does not fit n questions
func sanitize(snap Snapshot, n int) Snapshot {
	if !snap.Config.Valid(n) {
		snap.Config = domain.NewPollConfig(n)
	}
	words := make([][]string, n)
	for q := 0; q < n && q < len(snap.Words); q++ {
		words[q] = snap.Words[q]
	}
	snap.Words = words
	return snap
}
