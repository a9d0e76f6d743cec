package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayGuard_Consume(t *testing.T) {
	g, err := NewReplayGuard("", time.Hour, nil)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Consume("SPIRALVERSE-AETHERMOORE-QR-0011223344556677"))
	assert.Equal(t, 1, g.Size())

	err = g.Consume("SPIRALVERSE-AETHERMOORE-QR-0011223344556677")
	assert.True(t, errors.Is(err, ErrReplay))
	assert.Equal(t, 1, g.Size())

	assert.NoError(t, g.Consume("SPIRALVERSE-AETHERMOORE-QR-8899AABBCCDDEEFF"))
}

func TestReplayGuard_Expiry(t *testing.T) {
	mock := NewMockTimeProvider(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	g, err := NewReplayGuard("", time.Minute, mock)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Consume("token"))
	mock.Advance(30 * time.Second)
	assert.Error(t, g.Consume("token"), "still inside the window")

	mock.Advance(2 * time.Minute)
	assert.NoError(t, g.Consume("token"), "expired ids may be consumed again")

	mock.Advance(2 * time.Minute)
	g.cleanup()
	assert.Equal(t, 0, g.Size())
}

func TestReplayGuard_Persistence(t *testing.T) {
	dir := t.TempDir()
	mock := NewMockTimeProvider(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	g, err := NewReplayGuard(dir, time.Hour, mock)
	require.NoError(t, err)
	require.NoError(t, g.Consume("a"))
	require.NoError(t, g.Consume("b"))
	require.NoError(t, g.Close())

	_, err = os.Stat(filepath.Join(dir, replayFileName+".tmp"))
	assert.True(t, os.IsNotExist(err))

	reopened, err := NewReplayGuard(dir, time.Hour, mock)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Size())
	assert.True(t, errors.Is(reopened.Consume("a"), ErrReplay))

	mock.Advance(2 * time.Hour)
	pruned, err := NewReplayGuard(dir, time.Hour, mock)
	require.NoError(t, err)
	defer pruned.Close()
	assert.Equal(t, 0, pruned.Size(), "expired entries are skipped on load")
}

func TestReplayGuard_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, replayFileName), []byte{1, 2}, 0o600))

	g, err := NewReplayGuard(dir, time.Hour, nil)
	require.NoError(t, err)
	defer g.Close()
	assert.Equal(t, 0, g.Size())
}

func TestReplayGuard_ConcurrentConsume(t *testing.T) {
	g, err := NewReplayGuard("", time.Hour, nil)
	require.NoError(t, err)
	defer g.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Consume("shared") == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}

func TestReplayGuard_CloseTwice(t *testing.T) {
	g, err := NewReplayGuard(t.TempDir(), 0, nil)
	require.NoError(t, err)
	assert.NoError(t, g.Close())
	assert.NoError(t, g.Close())
}
