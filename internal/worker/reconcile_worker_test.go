package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) Reconcile(ctx context.Context, accountID string) (*domain.ReconcileResult, error) {
	args := m.Called(ctx, accountID)
	if r := args.Get(0); r != nil {
		return r.(*domain.ReconcileResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type staticAccounts struct {
	ids []string
	err error
}

func (s staticAccounts) ListAccountIDs(ctx context.Context) ([]string, error) {
	return s.ids, s.err
}

func TestReconcileWorker_RunOnce(t *testing.T) {
	rec := &mockReconciler{}
	rec.On("Reconcile", mock.Anything, "a").Return(&domain.ReconcileResult{AccountID: "a", PreviousXP: 10, LedgerXP: 10}, nil)
	rec.On("Reconcile", mock.Anything, "b").Return(&domain.ReconcileResult{AccountID: "b", PreviousXP: 10, LedgerXP: 25}, nil)
	rec.On("Reconcile", mock.Anything, "c").Return(nil, errors.New("lookup failed"))

	w := NewReconcileWorker(rec, staticAccounts{ids: []string{"a", "b", "c"}}, 2, time.Hour)
	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ReconcileSummary{Accounts: 3, Drifted: 1, Failed: 1}, summary)
	rec.AssertExpectations(t)
}

func TestReconcileWorker_RunOnce_ListError(t *testing.T) {
	w := NewReconcileWorker(&mockReconciler{}, staticAccounts{err: errors.New("db down")}, 0, 0)
	_, err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, DefaultReconcileWorkers, w.workers)
	assert.Equal(t, DefaultReconcileInterval, w.interval)
}

type countingReconciler struct {
	calls int32
	mu    sync.Mutex
	seen  map[string]int
}

func (c *countingReconciler) Reconcile(ctx context.Context, accountID string) (*domain.ReconcileResult, error) {
	atomic.AddInt32(&c.calls, 1)
	c.mu.Lock()
	c.seen[accountID]++
	c.mu.Unlock()
	return &domain.ReconcileResult{AccountID: accountID}, nil
}

func TestReconcileWorker_StartAndShutdown(t *testing.T) {
	rec := &countingReconciler{seen: make(map[string]int)}
	w := NewReconcileWorker(rec, staticAccounts{ids: []string{"a", "b"}}, 1, 20*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&rec.calls) >= 4
	}, 2*time.Second, 10*time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Shutdown(shutdownCtx))
	require.NoError(t, w.Shutdown(shutdownCtx))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.GreaterOrEqual(t, rec.seen["a"], 2)
	assert.GreaterOrEqual(t, rec.seen["b"], 2)
}
