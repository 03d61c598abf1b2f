package changes

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/papapumpkin/ddk/internal/journal"
	"github.com/papapumpkin/ddk/internal/msbuild"
	"github.com/papapumpkin/ddk/internal/projects"
	"github.com/papapumpkin/ddk/internal/storage"
)

// ErrInvalidChange indicates a change whose payload failed validation.
var ErrInvalidChange = errors.New("invalid change")

// ChangeError reports the change that aborted a batch.
type ChangeError struct {
	Index int
	Type  string
	Err   error
}

// Error names the failing change and its cause.
func (e *ChangeError) Error() string {
	return fmt.Sprintf("change %d (%s): %v", e.Index, e.Type, e.Err)
}

// Unwrap returns the cause.
func (e *ChangeError) Unwrap() error {
	return e.Err
}

// Options configures an Executor. Nil collaborators fall back to the msbuild
// implementations and a no-op logger and journal.
type Options struct {
	Discoverer projects.Discoverer
	Groups     projects.GroupParser
	Journal    *journal.Emitter
	Logger     *zap.Logger
	// RebalanceThreshold is the rank length that triggers respacing after a
	// batch. Zero disables the automatic check.
	RebalanceThreshold int
}

// Executor applies change sets to a store.
type Executor struct {
	store     *storage.Store
	disc      projects.Discoverer
	groups    projects.GroupParser
	journal   *journal.Emitter
	log       *zap.Logger
	threshold int
	validate  *validator.Validate
}

// NewExecutor returns an Executor writing to store.
func NewExecutor(store *storage.Store, opts Options) *Executor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Executor{
		store:     store,
		disc:      opts.Discoverer,
		groups:    opts.Groups,
		journal:   opts.Journal,
		log:       log.Named("changes"),
		threshold: opts.RebalanceThreshold,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	if e.disc == nil {
		e.disc = msbuild.NewDiscoverer(log)
	}
	if e.groups == nil {
		e.groups = msbuild.GroupParser{Macros: msbuild.DefaultMacros()}
	}
	return e
}

// Validate checks every payload in cs without touching the store. Changes
// must be the value variants; pointers to them are rejected.
func (e *Executor) Validate(cs ChangeSet) error {
	for i, c := range cs.Changes {
		if c == nil {
			return &ChangeError{Index: i, Type: typeName(c), Err: ErrInvalidChange}
		}
		if reflect.ValueOf(c).Kind() == reflect.Pointer {
			return &ChangeError{Index: i, Type: typeName(c), Err: fmt.Errorf("%w: changes are passed by value", ErrInvalidChange)}
		}
		if err := e.validate.Struct(c); err != nil {
			return &ChangeError{Index: i, Type: c.Type(), Err: fmt.Errorf("%w: %v", ErrInvalidChange, err)}
		}
	}
	return nil
}

// Execute applies cs in one store transaction: the store is locked and
// loaded once, every change is applied in memory, ranks are respaced when
// they have grown past the threshold, and the result is saved once. The
// first failing change aborts the batch and nothing is written.
func (e *Executor) Execute(ctx context.Context, cs ChangeSet) error {
	if err := e.Validate(cs); err != nil {
		e.record(cs, 0, err)
		return err
	}

	rebalanced := 0
	err := e.store.Update(ctx, func(tx *storage.Tx) error {
		for i, c := range cs.Changes {
			if err := e.apply(tx, c); err != nil {
				return &ChangeError{Index: i, Type: c.Type(), Err: err}
			}
			e.log.Debug("applied change", zap.Int("index", i), zap.String("type", c.Type()))
		}
		if e.threshold > 0 {
			rebalanced = tx.Data.Rebalance(e.threshold, false)
		}
		return nil
	})
	e.record(cs, rebalanced, err)
	return err
}

// DryRun applies cs to the current store contents without saving or
// journaling anything, and returns the state the batch would produce.
func (e *Executor) DryRun(ctx context.Context, cs ChangeSet) (*storage.Tx, error) {
	if err := e.Validate(cs); err != nil {
		return nil, err
	}
	var result *storage.Tx
	err := e.store.View(ctx, func(tx *storage.Tx) error {
		for i, c := range cs.Changes {
			if err := e.apply(tx, c); err != nil {
				return &ChangeError{Index: i, Type: c.Type(), Err: err}
			}
		}
		if e.threshold > 0 {
			tx.Data.Rebalance(e.threshold, false)
		}
		result = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Rebalance respaces ranks in one store transaction and returns the number
// of containers rewritten. Without force only containers past the configured
// threshold are touched.
func (e *Executor) Rebalance(ctx context.Context, force bool) (int, error) {
	cs := ChangeSet{Changes: []Change{RebalanceRanks{Force: force}}}
	n := 0
	err := e.store.Update(ctx, func(tx *storage.Tx) error {
		n = tx.Data.Rebalance(e.threshold, force)
		return nil
	})
	e.record(cs, n, err)
	return n, err
}

// record logs the outcome of a batch and appends it to the journal.
func (e *Executor) record(cs ChangeSet, rebalanced int, err error) {
	evt := journal.Event{Kind: journal.KindChangeSetApplied, Changes: len(cs.Changes), Types: cs.Types()}
	if err != nil {
		evt.Kind = journal.KindChangeSetFailed
		evt.Error = err.Error()
		var ce *ChangeError
		if errors.As(err, &ce) {
			evt.Failed = &ce.Index
		}
		e.log.Warn("change set failed", zap.Int("changes", len(cs.Changes)), zap.Error(err))
	} else {
		e.log.Info("change set applied", zap.Int("changes", len(cs.Changes)), zap.Strings("types", evt.Types))
	}
	if jerr := e.journal.Emit(evt); jerr != nil {
		e.log.Error("writing journal", zap.Error(jerr))
	}
	if err == nil && rebalanced > 0 {
		e.log.Info("respaced ranks", zap.Int("containers", rebalanced))
		if jerr := e.journal.Emit(journal.Event{Kind: journal.KindStoreRebalanced, Data: map[string]int{"containers": rebalanced}}); jerr != nil {
			e.log.Error("writing journal", zap.Error(jerr))
		}
	}
}
