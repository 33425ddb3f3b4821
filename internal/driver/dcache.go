package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"depyler/internal/config"
)

// Digest is a SHA-256 content address.
type Digest [sha256.Size]byte

// Increment when the payload format changes; mismatched entries miss
// cleanly instead of decoding garbage.
const cacheSchemaVersion uint16 = 1

// DiskCache stores transpile artifacts by source digest so unchanged
// files are skipped on re-runs. Thread-safe for concurrent access.
// A nil *DiskCache is valid and caches nothing.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// cachePayload is the serialized artifact. Diagnostics are not cached;
// a cache hit means the run produced no errors, so re-rendering them
// has nothing to say.
type cachePayload struct {
	Schema     uint16
	SourceName string
	ModuleName string
	Rust       string
	Manifest   string
	Report     string
	Fired      []string
}

// OpenDiskCache initializes the cache at cfg.CacheDir, or the XDG
// default when unset. CacheDir "-" disables caching and returns nil.
func OpenDiskCache(cfg config.Config) (*DiskCache, error) {
	if cfg.CacheDir == "-" {
		return nil, nil
	}
	dir := cfg.CacheDir
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "depyler")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// ArtifactKey addresses an artifact by source text plus the config
// fields that affect emission.
func ArtifactKey(src []byte, cfg config.Config) Digest {
	h := sha256.New()
	_, _ = h.Write(src)
	if data, err := json.Marshal(cfg); err == nil {
		_, _ = h.Write(data)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "artifacts", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes an artifact to the cache atomically.
func (c *DiskCache) Put(key Digest, a *Artifact) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	payload := &cachePayload{
		Schema:     cacheSchemaVersion,
		SourceName: a.SourceName,
		ModuleName: a.ModuleName,
		Rust:       a.Rust,
		Manifest:   a.Manifest,
		Report:     a.Report,
		Fired:      a.Fired,
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads an artifact from the cache. The boolean reports a hit;
// schema mismatches miss without error.
func (c *DiskCache) Get(key Digest) (*Artifact, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "close cache entry: %v\n", closeErr)
		}
	}()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &Artifact{
		SourceName: payload.SourceName,
		ModuleName: payload.ModuleName,
		Rust:       payload.Rust,
		Manifest:   payload.Manifest,
		Report:     payload.Report,
		Fired:      payload.Fired,
		FromCache:  true,
	}, true, nil
}

// DropAll invalidates the whole cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
