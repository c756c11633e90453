package todo

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/storage"
)

// State is the lifecycle of an Initializer.
type State int

const (
	StateUnopened State = iota
	StateOpening
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// OpenFunc opens a backend. storage.Open satisfies it.
type OpenFunc func(ctx context.Context, opts storage.Options) (storage.StorageBackend, error)

// Initializer opens the todoDB store once per process. Open and Failed are
// terminal: later calls to Open return the same Repository or the same
// error without touching the store again.
type Initializer struct {
	opts   storage.Options
	open   OpenFunc
	logger *zap.Logger

	// openMu serialises Open; mu guards the fields below it so State can
	// be read while an open is in flight.
	openMu sync.Mutex
	mu     sync.Mutex
	state  State
	repo   *Repository
	err    error
}

// NewInitializer returns an Initializer in StateUnopened. A nil open uses
// storage.Open; a nil logger discards output.
func NewInitializer(opts storage.Options, open OpenFunc, logger *zap.Logger) *Initializer {
	if open == nil {
		open = storage.Open
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Initializer{opts: opts, open: open, logger: logger}
}

// State reports the current lifecycle state.
func (i *Initializer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Open opens the store, creating the todos collection and its indexes on
// first use. Failures are logged and returned; there is no retry.
func (i *Initializer) Open(ctx context.Context) (*Repository, error) {
	i.openMu.Lock()
	defer i.openMu.Unlock()

	switch i.State() {
	case StateOpen:
		return i.repo, nil
	case StateFailed:
		return nil, i.err
	}

	i.setState(StateOpening)
	backend := i.opts.BackendName()

	b, err := i.open(ctx, i.opts)

	i.mu.Lock()
	defer i.mu.Unlock()

	if err != nil {
		i.state = StateFailed
		i.err = fmt.Errorf("open %s store: %w", storage.DatabaseName, err)
		i.logger.Error("failed to open store",
			zap.String("backend", backend),
			zap.Error(err),
		)
		return nil, i.err
	}

	i.state = StateOpen
	i.repo = NewRepository(b, i.logger)
	i.logger.Info("store opened",
		zap.String("backend", backend),
		zap.String("database", storage.DatabaseName),
		zap.Int("version", storage.SchemaVersion),
	)
	return i.repo, nil
}

func (i *Initializer) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}
