package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/factkeeper/internal/core/filestore"
	"github.com/solatis/factkeeper/internal/rules"
	"github.com/solatis/factkeeper/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore records every saved document.
type memStore struct {
	mu    sync.Mutex
	doc   *types.Document
	saves int
	err   error
}

func (s *memStore) Load(ctx context.Context) (*types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, types.ErrNoDocument
	}
	doc := *s.doc
	return &doc, nil
}

func (s *memStore) Save(ctx context.Context, doc types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.doc = &doc
	s.saves++
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newWorkspace(t *testing.T, opts ...Option) *Workspace {
	t.Helper()
	engine, err := rules.NewEngine(zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	return New(engine, opts...)
}

// seed declares age and state and adds one rule on age >= 18.
func seed(t *testing.T, w *Workspace) types.Rule {
	t.Helper()
	ctx := context.Background()

	_, err := w.AddFact(ctx, types.FactDefinition{Name: "age", Type: types.FactNumber, DefaultValue: 0.0})
	require.NoError(t, err)
	_, err = w.AddFact(ctx, types.FactDefinition{Name: "state", Type: types.FactString})
	require.NoError(t, err)

	r := types.NewRule("adult", "adult")
	r.Conditions.Conditions = []types.Node{
		&types.Condition{ID: types.NewNodeID(), Fact: "age", Operator: types.OpGreaterThanInclusive, Value: 18.0},
	}
	added, err := w.AddRule(ctx, r)
	require.NoError(t, err)
	return added
}

func TestFacts_AddUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	w := newWorkspace(t, WithStore(store))

	f, err := w.AddFact(ctx, types.FactDefinition{Name: "income", Type: types.FactNumber})
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)

	_, err = w.AddFact(ctx, types.FactDefinition{Name: "INCOME", Type: types.FactNumber})
	assert.ErrorIs(t, err, types.ErrDuplicateFactName)
	assert.Len(t, w.Facts(), 1)

	f.Description = "yearly"
	require.NoError(t, w.UpdateFact(ctx, f.ID, f))
	got, err := w.Fact(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "yearly", got.Description)

	assert.ErrorIs(t, w.UpdateFact(ctx, "missing", f), types.ErrFactNotFound)

	require.NoError(t, w.DeleteFact(ctx, f.ID))
	assert.Empty(t, w.Facts())
	assert.ErrorIs(t, w.DeleteFact(ctx, f.ID), types.ErrFactNotFound)

	assert.Equal(t, 3, store.saveCount())
}

func TestFacts_InUse(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	seed(t, w)

	age, err := w.FactByName("age")
	require.NoError(t, err)

	assert.ErrorIs(t, w.DeleteFact(ctx, age.ID), types.ErrFactInUse)

	renamed := age
	renamed.Name = "years"
	assert.ErrorIs(t, w.UpdateFact(ctx, age.ID, renamed), types.ErrFactInUse)

	state, err := w.FactByName("state")
	require.NoError(t, err)
	require.NoError(t, w.DeleteFact(ctx, state.ID))
	assert.Len(t, w.Facts(), 1)
}

func TestRules_Lifecycle(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	first := seed(t, w)

	_, err := w.AddRule(ctx, types.Rule{Name: "", Event: types.RuleEvent{Type: "x"}})
	assert.ErrorIs(t, err, types.ErrEmptyRuleName)

	bare, err := w.AddRule(ctx, types.Rule{Name: "bare", Event: types.RuleEvent{Type: "bare"}, Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, bare.Conditions)
	assert.Equal(t, types.GroupAll, bare.Conditions.Type)

	dup, err := w.DuplicateRule(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "adult (Copy)", dup.Name)

	names := func() []string {
		var out []string
		for _, r := range w.Rules() {
			out = append(out, r.Name)
		}
		return out
	}
	assert.Equal(t, []string{"adult", "bare", "adult (Copy)"}, names())

	w.ReorderRules(ctx, 2, 0)
	assert.Equal(t, []string{"adult (Copy)", "adult", "bare"}, names())
	w.ReorderRules(ctx, 0, 7)
	assert.Equal(t, []string{"adult (Copy)", "adult", "bare"}, names())

	enabled, err := w.ToggleRuleEnabled(ctx, bare.ID)
	require.NoError(t, err)
	assert.False(t, enabled)

	updated := first
	updated.Priority = 9
	require.NoError(t, w.UpdateRule(ctx, first.ID, updated))
	got, err := w.Rule(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Priority)

	require.NoError(t, w.DeleteRule(ctx, dup.ID))
	assert.Equal(t, []string{"adult", "bare"}, names())

	assert.ErrorIs(t, w.DeleteRule(ctx, dup.ID), types.ErrRuleNotFound)
	_, err = w.ToggleRuleEnabled(ctx, dup.ID)
	assert.ErrorIs(t, err, types.ErrRuleNotFound)
}

func TestUpdateConditions(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	r := seed(t, w)

	assert.ErrorIs(t, w.UpdateConditions(ctx, r.ID, nil), types.ErrMissingConditions)

	root := types.NewConditionGroup(types.GroupAny)
	require.NoError(t, w.UpdateConditions(ctx, r.ID, root))
	got, err := w.Rule(r.ID)
	require.NoError(t, err)
	assert.Same(t, root, got.Conditions)
}

func TestChangeConditionFact(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	r := seed(t, w)
	leafID := r.Conditions.Conditions[0].NodeID()

	require.NoError(t, w.ChangeConditionFact(ctx, r.ID, leafID, "state"))

	got, err := w.Rule(r.ID)
	require.NoError(t, err)
	leaf := got.Conditions.Conditions[0].(*types.Condition)
	assert.Equal(t, "state", leaf.Fact)
	assert.Equal(t, types.OpEqual, leaf.Operator)
	assert.Equal(t, "", leaf.Value)

	// the previous tree is untouched
	assert.Equal(t, "age", r.Conditions.Conditions[0].(*types.Condition).Fact)

	assert.ErrorIs(t, w.ChangeConditionFact(ctx, r.ID, leafID, "ghost"), types.ErrFactNotFound)
	assert.Error(t, w.ChangeConditionFact(ctx, r.ID, "nope", "age"))
	assert.Error(t, w.ChangeConditionFact(ctx, r.ID, r.Conditions.ID, "age"))
}

func TestRun_RecordsLastResult(t *testing.T) {
	w := newWorkspace(t)
	seed(t, w)
	assert.Nil(t, w.LastRunResult())

	result, err := w.Run(map[string]any{"age": 30.0})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "adult", result.Events[0].Type)
	assert.Same(t, result, w.LastRunResult())

	w.ClearLastRunResult()
	assert.Nil(t, w.LastRunResult())
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newWorkspace(t)
	seed(t, src)

	data, err := src.ExportJSON()
	require.NoError(t, err)

	dst := newWorkspace(t)
	_, err = dst.Run(nil)
	require.NoError(t, err)
	require.NotNil(t, dst.LastRunResult())

	require.NoError(t, dst.ImportJSON(ctx, data))
	assert.Nil(t, dst.LastRunResult())

	if diff := cmp.Diff(src.Export(), dst.Export(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("imported document mismatch (-want +got):\n%s", diff)
	}
}

func TestImportJSON_InvalidFormatLeavesState(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	seed(t, w)
	before := w.Export()

	for _, data := range []string{`{"facts": []}`, `{"facts": {}, "rules": []}`, `not json`} {
		err := w.ImportJSON(ctx, []byte(data))
		assert.ErrorIs(t, err, types.ErrInvalidFormat, data)
	}

	if diff := cmp.Diff(before, w.Export()); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	w := newWorkspace(t, WithStore(store))
	seed(t, w)
	_, err := w.Run(nil)
	require.NoError(t, err)

	w.Reset(ctx)
	assert.Empty(t, w.Facts())
	assert.Empty(t, w.Rules())
	assert.Nil(t, w.LastRunResult())
	require.NotNil(t, store.doc)
	assert.Empty(t, store.doc.Rules)
}

func TestSaveFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := &memStore{err: errors.New("disk full")}
	w := newWorkspace(t, WithStore(store), WithLogger(zap.New(core)))

	f, err := w.AddFact(context.Background(), types.FactDefinition{Name: "age", Type: types.FactNumber})
	require.NoError(t, err)

	got, err := w.Fact(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "age", got.Name)

	entries := logs.FilterMessage("failed to save workspace").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "workspace", entries[0].LoggerName)
}

func TestSaveIgnoresCallerCancellation(t *testing.T) {
	store := &memStore{}
	w := newWorkspace(t, WithStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.AddFact(ctx, types.FactDefinition{Name: "age", Type: types.FactNumber})
	require.NoError(t, err)
	assert.Equal(t, 1, store.saveCount())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := filestore.New(t.TempDir() + "/doc.json")

	w := newWorkspace(t, WithStore(store))
	require.NoError(t, w.Load(ctx))
	assert.Empty(t, w.Facts())

	seed(t, w)

	reloaded := newWorkspace(t, WithStore(store))
	require.NoError(t, reloaded.Load(ctx))
	if diff := cmp.Diff(w.Export(), reloaded.Export(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("reloaded document mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentRunsAndEdits(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, WithStore(&memStore{}))
	r := seed(t, w)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 20; j++ {
				if _, err := w.Run(map[string]any{"age": float64(j)}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for j := 0; j < 20; j++ {
			if _, err := w.ToggleRuleEnabled(ctx, r.ID); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	got, err := w.Rule(r.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, newWorkspace(t).Flush(ctx))

	store := &memStore{}
	w := newWorkspace(t, WithStore(store))
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 1, store.saveCount())

	store.err = errors.New("read-only")
	assert.ErrorContains(t, w.Flush(ctx), "read-only")
}
