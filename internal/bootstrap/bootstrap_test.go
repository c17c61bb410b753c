package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/CatchLog_Go/internal/catalog"
	"github.com/osse101/CatchLog_Go/internal/config"
	"github.com/osse101/CatchLog_Go/internal/database/memory"
	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/eventlog"
)

func TestCleanupLogs_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"session_2026-01-01_00-00-00.log",
		"session_2026-01-02_00-00-00.log",
		"session_2026-01-03_00-00-00.log",
		"session_2026-01-04_00-00-00.log",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o600))

	cleanupLogs(dir, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	assert.ElementsMatch(t, []string{names[2], names[3], "notes.txt"}, left)
}

func TestInitializeEventSystem_CreatesDeadLetterDir(t *testing.T) {
	cfg := &config.Config{
		DeadLetterPath:  filepath.Join(t.TempDir(), "nested", "deadletter.jsonl"),
		EventRetryDelay: time.Millisecond,
	}

	bus, publisher, err := InitializeEventSystem(cfg)
	require.NoError(t, err)
	require.NotNil(t, bus)
	t.Cleanup(func() { _ = publisher.Shutdown(context.Background()) })

	_, err = os.Stat(cfg.DeadLetterPath)
	assert.NoError(t, err)

	require.NoError(t, RegisterEventHandlers(bus, nil))
	assert.NoError(t, bus.Publish(context.Background(), event.NewLevelUpEvent("acct", 1, 2)))
}

func TestOpenStorage_Memory(t *testing.T) {
	storage, err := OpenStorage(context.Background(), &config.Config{Store: config.StoreMemory})
	require.NoError(t, err)
	defer storage.Close()

	assert.IsType(t, &memory.Store{}, storage.Store)
	assert.Nil(t, storage.HealthPool())
}

func TestSyncCatalog_ShippedFile(t *testing.T) {
	store := memory.NewStore()
	cat := catalog.New(store, 16, time.Minute)

	result, err := SyncCatalog(context.Background(), cat, "../../configs/challenges.json")
	require.NoError(t, err)
	assert.Positive(t, result.ChallengesInserted)
	assert.Empty(t, result.UndefinedRules)

	again, err := SyncCatalog(context.Background(), cat, "../../configs/challenges.json")
	require.NoError(t, err)
	assert.Zero(t, again.ChallengesInserted)
	assert.Zero(t, again.ChallengesUpdated)
}

func TestRegisterEventHandlers_SubscribesEventLog(t *testing.T) {
	repo := new(eventlog.MockRepository)
	repo.On("Append", mock.Anything, string(event.LevelUp), mock.Anything, mock.Anything, mock.Anything).Return(nil)

	bus := event.NewMemoryBus()
	require.NoError(t, RegisterEventHandlers(bus, eventlog.NewService(repo)))
	require.NoError(t, bus.Publish(context.Background(), event.NewLevelUpEvent("acct", 1, 2)))

	repo.AssertNumberOfCalls(t, "Append", 1)
}

func TestStartEventLogCleanup(t *testing.T) {
	called := make(chan struct{}, 1)
	repo := new(eventlog.MockRepository)
	repo.On("Prune", mock.Anything, 7).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	}).Return(int64(0), nil)

	cfg := &config.Config{EventLogRetentionDays: 7, EventLogCleanupInterval: 10 * time.Millisecond}
	sched, pool, err := StartEventLogCleanup(context.Background(), cfg, eventlog.NewService(repo))
	require.NoError(t, err)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup job never ran")
	}

	GracefulShutdown(context.Background(), ShutdownComponents{Scheduler: sched, SchedulerPool: pool})
}

func TestGracefulShutdown_NilComponents(t *testing.T) {
	assert.NotPanics(t, func() {
		GracefulShutdown(context.Background(), ShutdownComponents{})
	})
}
