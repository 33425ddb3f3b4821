package driver

import (
	"testing"

	"depyler/internal/config"
)

func cacheConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	return cfg
}

func TestCacheRoundTrip(t *testing.T) {
	cfg := cacheConfig(t)
	cache, err := OpenDiskCache(cfg)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}

	art := &Artifact{
		SourceName: "calc.py",
		ModuleName: "calc",
		Rust:       "pub fn add(a: i64, b: i64) -> i64 {\n    return a + b;\n}\n",
		Manifest:   "[package]\nname = \"calc\"\n",
		Report:     "depyler report for calc.py\n",
		Fired:      []string{"bare_return"},
	}
	key := ArtifactKey([]byte("def add(a, b): return a + b\n"), cfg)

	if err := cache.Put(key, art); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if !got.FromCache {
		t.Error("hit not marked FromCache")
	}
	if got.Rust != art.Rust || got.Manifest != art.Manifest || got.Report != art.Report {
		t.Errorf("cached artifact differs: %+v", got)
	}
	if len(got.Fired) != 1 || got.Fired[0] != "bare_return" {
		t.Errorf("Fired = %v, want [bare_return]", got.Fired)
	}
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	cache, err := OpenDiskCache(cacheConfig(t))
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	_, ok, err := cache.Get(ArtifactKey([]byte("never stored"), config.Default()))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("unexpected hit")
	}
}

func TestCacheDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = "-"
	cache, err := OpenDiskCache(cfg)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	if cache != nil {
		t.Fatal("CacheDir \"-\" should disable the cache")
	}
	// nil receiver paths must be safe
	if err := cache.Put(Digest{1}, &Artifact{}); err != nil {
		t.Errorf("nil Put: %v", err)
	}
	if _, ok, err := cache.Get(Digest{1}); ok || err != nil {
		t.Errorf("nil Get = (%v, %v), want miss", ok, err)
	}
}

func TestArtifactKeyDependsOnSourceAndConfig(t *testing.T) {
	src := []byte("def f(): pass\n")
	base := config.Default()

	nasa := base
	nasa.NasaMode = true

	if ArtifactKey(src, base) == ArtifactKey(src, nasa) {
		t.Error("config change did not change the key")
	}
	if ArtifactKey(src, base) == ArtifactKey([]byte("def g(): pass\n"), base) {
		t.Error("source change did not change the key")
	}
	if ArtifactKey(src, base) != ArtifactKey(src, base) {
		t.Error("key is not deterministic")
	}
}
