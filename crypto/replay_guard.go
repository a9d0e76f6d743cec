package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultReplayWindow is how long a consumed token id stays blocked.
	DefaultReplayWindow = 24 * time.Hour

	replayRecordSize   = sha256.Size + 8
	replayFileName     = "token_replay.dat"
	replayCleanupEvery = 10 * time.Minute
)

// ErrReplay indicates that a token id has already been consumed.
var ErrReplay = errors.New("token already consumed")

// ReplayGuard remembers consumed token ids until they expire, so that a
// single-use authorization cannot be verified twice.
//
// Ids are stored as SHA-256 digests with a Unix expiry. The set is written to
// disk on Close and reloaded on open, so the guard survives restarts. An empty
// data directory keeps the guard in memory only.
//
// The guard is safe for concurrent use. A background goroutine prunes expired
// entries until Close is called.
type ReplayGuard struct {
	mu           sync.Mutex
	seen         map[[sha256.Size]byte]int64
	window       time.Duration
	saveFile     string
	stop         chan struct{}
	stopOnce     sync.Once
	timeProvider TimeProvider
}

// NewReplayGuard opens a guard persisted under dataDir. A zero window means
// DefaultReplayWindow; a nil timeProvider means the package default.
func NewReplayGuard(dataDir string, window time.Duration, timeProvider TimeProvider) (*ReplayGuard, error) {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	if timeProvider == nil {
		timeProvider = GetDefaultTimeProvider()
	}

	g := &ReplayGuard{
		seen:         make(map[[sha256.Size]byte]int64),
		window:       window,
		stop:         make(chan struct{}),
		timeProvider: timeProvider,
	}

	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create replay guard directory: %w", err)
		}
		g.saveFile = filepath.Join(dataDir, replayFileName)
		if err := g.load(); err != nil {
			NewLogger("NewReplayGuard").WithError(err, "load_error", "load").Warn("Could not load replay guard, starting fresh")
		}
	}

	go g.cleanupLoop()
	return g, nil
}

// Consume marks tokenID as used. It returns ErrReplay if the id was already
// consumed and has not yet expired.
func (g *ReplayGuard) Consume(tokenID string) error {
	digest := sha256.Sum256([]byte(tokenID))
	now := g.timeProvider.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if expiry, ok := g.seen[digest]; ok && expiry >= now.Unix() {
		logrus.WithFields(logrus.Fields{
			"token_digest": fmt.Sprintf("%x", digest[:8]),
		}).Warn("Replay detected: token already consumed")
		return fmt.Errorf("%w: %s", ErrReplay, tokenID)
	}

	g.seen[digest] = now.Add(g.window).Unix()
	return nil
}

// Size returns the number of tracked token ids.
func (g *ReplayGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// Close stops the cleanup loop and persists the current set.
func (g *ReplayGuard) Close() error {
	g.stopOnce.Do(func() { close(g.stop) })
	if g.saveFile == "" {
		return nil
	}
	return g.save()
}

func (g *ReplayGuard) load() error {
	data, err := os.ReadFile(g.saveFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read replay guard: %w", err)
	}
	if len(data) < 8 {
		return fmt.Errorf("corrupted replay guard: file too small")
	}

	count := binary.BigEndian.Uint64(data[:8])
	now := g.timeProvider.Now().Unix()
	loaded := 0
	for off, i := 8, uint64(0); i < count && off+replayRecordSize <= len(data); i, off = i+1, off+replayRecordSize {
		raw := binary.BigEndian.Uint64(data[off+sha256.Size : off+replayRecordSize])
		if raw > math.MaxInt64 {
			continue
		}
		expiry := int64(raw)
		if expiry < now {
			continue
		}
		var digest [sha256.Size]byte
		copy(digest[:], data[off:off+sha256.Size])
		g.seen[digest] = expiry
		loaded++
	}

	NewLogger("load").WithFields(logrus.Fields{
		"total_in_file": count,
		"loaded":        loaded,
	}).Debug("Replay guard loaded")
	return nil
}

func (g *ReplayGuard) save() error {
	g.mu.Lock()
	buf := make([]byte, 8, 8+len(g.seen)*replayRecordSize)
	var written uint64
	for digest, expiry := range g.seen {
		if expiry < 0 {
			continue
		}
		buf = append(buf, digest[:]...)
		buf = binary.BigEndian.AppendUint64(buf, uint64(expiry))
		written++
	}
	g.mu.Unlock()
	binary.BigEndian.PutUint64(buf[:8], written)

	tmp := g.saveFile + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o600); err != nil {
		return fmt.Errorf("failed to write replay guard: %w", err)
	}
	if err := os.Rename(tmp, g.saveFile); err != nil {
		return fmt.Errorf("failed to rename replay guard: %w", err)
	}
	return nil
}

func (g *ReplayGuard) cleanupLoop() {
	ticker := time.NewTicker(replayCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.cleanup()
		case <-g.stop:
			return
		}
	}
}

func (g *ReplayGuard) cleanup() {
	now := g.timeProvider.Now().Unix()

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for digest, expiry := range g.seen {
		if expiry < now {
			delete(g.seen, digest)
			removed++
		}
	}
	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(g.seen),
		}).Debug("Pruned expired token ids")
	}
}
