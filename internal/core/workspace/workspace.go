// Package workspace owns the live fact and rule collections.
//
// A Workspace is the single mutable state of a running FactKeeper: every
// edit goes through one of its actions, which validate first and then swap
// in new slices, so a failed action leaves the state untouched. Readers get
// copies. After each successful mutation the document is saved to the
// configured Store on a best-effort basis: a failed save is logged and the
// in-memory state stays authoritative.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/factkeeper/internal/rules"
	"github.com/solatis/factkeeper/internal/ruleset"
	"github.com/solatis/factkeeper/internal/types"
)

// DefaultSaveTimeout bounds a single best-effort save.
const DefaultSaveTimeout = 5 * time.Second

// Store is the durable home of the workspace document.
type Store interface {
	// Load returns the stored document, or types.ErrNoDocument.
	Load(ctx context.Context) (*types.Document, error)
	// Save replaces the stored document.
	Save(ctx context.Context, doc types.Document) error
}

// Workspace holds facts, rules and the last engine result.
type Workspace struct {
	mu         sync.RWMutex
	facts      []types.FactDefinition
	rules      []types.Rule
	lastResult *types.EngineRunResult

	engine      *rules.Engine
	store       Store
	logger      *zap.Logger
	saveTimeout time.Duration
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithStore persists the workspace to store after every mutation.
func WithStore(store Store) Option {
	return func(w *Workspace) { w.store = store }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workspace) { w.logger = logger }
}

// WithSaveTimeout bounds each best-effort save.
func WithSaveTimeout(d time.Duration) Option {
	return func(w *Workspace) { w.saveTimeout = d }
}

// New returns an empty workspace running rules on engine.
func New(engine *rules.Engine, opts ...Option) *Workspace {
	w := &Workspace{
		facts:       []types.FactDefinition{},
		rules:       []types.Rule{},
		engine:      engine,
		logger:      zap.NewNop(),
		saveTimeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("workspace")
	return w
}

// Load replaces the in-memory state with the stored document. A store with
// no document leaves the workspace empty. Without a store Load is a no-op.
func (w *Workspace) Load(ctx context.Context) error {
	if w.store == nil {
		return nil
	}

	doc, err := w.store.Load(ctx)
	if errors.Is(err, types.ErrNoDocument) {
		w.logger.Info("no stored document, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.facts = nonNilFacts(doc.Facts)
	w.rules = nonNilRules(doc.Rules)
	w.lastResult = nil

	w.logger.Info("workspace loaded",
		zap.Int("facts", len(w.facts)),
		zap.Int("rules", len(w.rules)),
	)
	return nil
}

// Facts returns a copy of the declared facts in declaration order.
func (w *Workspace) Facts() []types.FactDefinition {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]types.FactDefinition{}, w.facts...)
}

// Rules returns a copy of the rule set in execution order. Condition trees
// are shared; edits must go through the workspace actions.
func (w *Workspace) Rules() []types.Rule {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]types.Rule{}, w.rules...)
}

// Fact returns the fact with id.
func (w *Workspace) Fact(id types.FactID) (types.FactDefinition, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i := w.factIndex(id); i >= 0 {
		return w.facts[i], nil
	}
	return types.FactDefinition{}, types.ErrFactNotFound
}

// FactByName returns the fact declared under name (exact match).
func (w *Workspace) FactByName(name string) (types.FactDefinition, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, f := range w.facts {
		if f.Name == name {
			return f, nil
		}
	}
	return types.FactDefinition{}, fmt.Errorf("%w: %q", types.ErrFactNotFound, name)
}

// Rule returns the rule with id.
func (w *Workspace) Rule(id types.RuleID) (types.Rule, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i := ruleset.Find(w.rules, id); i >= 0 {
		return w.rules[i], nil
	}
	return types.Rule{}, types.ErrRuleNotFound
}

// Export returns a snapshot of the document.
func (w *Workspace) Export() types.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot()
}

// ExportJSON returns the document as pretty JSON.
func (w *Workspace) ExportJSON() ([]byte, error) {
	return types.MarshalDocument(w.Export())
}

// Import replaces facts and rules wholesale and clears the last result.
func (w *Workspace) Import(ctx context.Context, doc types.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.facts = nonNilFacts(doc.Facts)
	w.rules = nonNilRules(doc.Rules)
	w.lastResult = nil
	w.save(ctx)

	w.logger.Info("document imported",
		zap.Int("facts", len(w.facts)),
		zap.Int("rules", len(w.rules)),
	)
	return nil
}

// ImportJSON parses data as an exported document and imports it. A document
// whose facts or rules are not arrays fails with ErrInvalidFormat and leaves
// the workspace unchanged.
func (w *Workspace) ImportJSON(ctx context.Context, data []byte) error {
	doc, err := types.ParseDocument(data)
	if err != nil {
		return err
	}
	return w.Import(ctx, *doc)
}

// Reset clears facts, rules and the last result.
func (w *Workspace) Reset(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.facts = []types.FactDefinition{}
	w.rules = []types.Rule{}
	w.lastResult = nil
	w.save(ctx)
}

// Run executes the enabled rules against values and records the result as
// the last run result. The engine runs on a snapshot without holding the
// lock, so edits and runs may interleave.
func (w *Workspace) Run(values map[string]any) (*types.EngineRunResult, error) {
	w.mu.RLock()
	facts := w.facts
	ruleSet := w.rules
	w.mu.RUnlock()

	result, err := w.engine.Run(ruleSet, facts, values)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.lastResult = result
	w.mu.Unlock()
	return result, nil
}

// LastRunResult returns the most recent run result, or nil.
func (w *Workspace) LastRunResult() *types.EngineRunResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastResult
}

// ClearLastRunResult forgets the most recent run result.
func (w *Workspace) ClearLastRunResult() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastResult = nil
}

// Flush saves the current state and returns the store error, for callers
// that must know the document reached the store.
func (w *Workspace) Flush(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.store.Save(ctx, w.snapshot()); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}

// save persists the current state. Callers hold the write lock, which keeps
// saves in mutation order.
func (w *Workspace) save(ctx context.Context) {
	if w.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.saveTimeout)
	defer cancel()

	if err := w.store.Save(ctx, w.snapshot()); err != nil {
		w.logger.Error("failed to save workspace",
			zap.Int("facts", len(w.facts)),
			zap.Int("rules", len(w.rules)),
			zap.Error(err),
		)
	}
}

func (w *Workspace) snapshot() types.Document {
	return types.Document{
		Facts: append([]types.FactDefinition{}, w.facts...),
		Rules: append([]types.Rule{}, w.rules...),
	}
}

func (w *Workspace) factIndex(id types.FactID) int {
	for i := range w.facts {
		if w.facts[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceRule swaps in r at index i of a fresh rule slice.
func (w *Workspace) replaceRule(i int, r types.Rule) {
	next := append([]types.Rule{}, w.rules...)
	next[i] = r
	w.rules = next
}

func nonNilFacts(facts []types.FactDefinition) []types.FactDefinition {
	return append([]types.FactDefinition{}, facts...)
}

func nonNilRules(rules []types.Rule) []types.Rule {
	return append([]types.Rule{}, rules...)
}
