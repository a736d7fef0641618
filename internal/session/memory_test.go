package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PendingLifecycle(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	p, err := store.Pending(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, p)

	first, _ := domain.ParseDateRange("2024-02-01", "2024-02-05")
	second, _ := domain.ParseDateRange("2024-03-01", "2024-03-02")
	require.NoError(t, store.SetPending(ctx, "s1", first))
	require.NoError(t, store.SetPending(ctx, "s1", second))

	p, err = store.Pending(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, second, *p, "last quote wins")

	other, err := store.Pending(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.ClearPending(ctx, "s1"))
	p, _ = store.Pending(ctx, "s1")
	assert.Nil(t, p)
}

func TestMemoryStore_TranscriptIsCopied(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	msgs := []domain.Message{{Role: domain.RoleSystem, Content: "sys"}}
	require.NoError(t, store.SetTranscript(ctx, "s1", msgs))
	msgs[0].Content = "mutated"

	got, err := store.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "sys", got[0].Content)
}

func TestMemoryStore_LockSerialisesSameSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := store.Lock(ctx, "same")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestMemoryStore_LockDoesNotBlockOtherSessions(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	unlockA, err := store.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	lockCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := store.Lock(lockCtx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryStore_LockHonoursContext(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	unlock, err := store.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = store.Lock(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.SetTranscript(ctx, "idle", nil))
	unlock, err := store.Lock(ctx, "busy")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	require.NoError(t, store.SetTranscript(ctx, "fresh", nil))

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 2, store.Len())

	unlock()
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 0, store.Len())
}
