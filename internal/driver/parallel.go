package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"depyler/internal/config"
	"depyler/internal/diag"
	"depyler/internal/source"
)

// FileResult pairs one input path with its transpile outcome. Err is
// per-file; a batch keeps going when individual files fail.
type FileResult struct {
	Path     string
	Artifact *Artifact
	Err      error
}

// TranspileFile reads, parses, and transpiles a single Python file,
// consulting the disk cache when the config enables it.
func TranspileFile(ctx context.Context, path string, cfg config.Config, opts Options) (*Artifact, error) {
	cache, err := OpenDiskCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return transpilePath(ctx, path, cfg, opts, cache)
}

func transpilePath(ctx context.Context, path string, cfg config.Config, opts Options, cache *DiskCache) (*Artifact, error) {
	src, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", path, ErrUserInput, err)
	}

	key := ArtifactKey(src, cfg)
	if hit, ok, err := cache.Get(key); err == nil && ok {
		hit.FileSet = source.NewFileSet()
		hit.FileSet.AddVirtual(hit.SourceName, src)
		return hit, nil
	}

	astJSON, err := ParseSource(ctx, cfg, src)
	if err != nil {
		art := &Artifact{SourceName: filepath.Base(path), ModuleName: moduleName(path)}
		art.FileSet = source.NewFileSet()
		art.FileSet.AddVirtual(art.SourceName, src)
		art.Diags = append(art.Diags, diag.NewError(diag.DrvParserFailure, source.Span{}, err.Error()))
		return art, err
	}

	art, err := TranspileWithOptions(filepath.Base(path), src, astJSON, cfg, opts)
	if err != nil {
		return art, err
	}
	if art.HasErrors() {
		art.Diags = append(art.Diags, diag.NewInfo(diag.DrvCacheSkipped, source.Span{},
			"artifact not cached: diagnostics contain errors"))
		return art, nil
	}
	if putErr := cache.Put(key, art); putErr != nil {
		art.Diags = append(art.Diags, diag.NewWarning(diag.DrvCacheSkipped, source.Span{},
			fmt.Sprintf("artifact not cached: %v", putErr)))
	}
	return art, nil
}

// ListPyFiles returns the sorted .py files under dir.
func ListPyFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// TranspileDir transpiles every .py file under dir in parallel. Results
// come back in sorted path order regardless of completion order; jobs
// <= 0 means GOMAXPROCS.
func TranspileDir(ctx context.Context, dir string, cfg config.Config, opts Options, jobs int) ([]FileResult, error) {
	files, err := ListPyFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w: %v", dir, ErrUserInput, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	cache, err := OpenDiskCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			art, err := transpilePath(gctx, path, cfg, opts, cache)
			// Slot i is owned by this goroutine; no mutex needed.
			results[i] = FileResult{Path: path, Artifact: art, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
