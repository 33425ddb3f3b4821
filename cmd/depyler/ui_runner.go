package main

import (
	"context"
	"fmt"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"depyler/internal/config"
	"depyler/internal/driver"
	"depyler/internal/ui"
)

// runBatchFancy transpiles a directory behind the full-screen progress
// view. The worker pool feeds ui events; the Bubble Tea program owns
// the terminal until the channel closes.
func runBatchFancy(ctx context.Context, dir string, cfg config.Config, opts driver.Options, jobs int) ([]driver.FileResult, error) {
	files, err := driver.ListPyFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w: %v", dir, driver.ErrUserInput, err)
	}
	if len(files) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	events := make(chan ui.Event, len(files)*2)
	results := make([]driver.FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	go func() {
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				events <- ui.Event{File: path, Stage: ui.StageParse, Status: ui.StatusWorking}
				art, err := driver.TranspileFile(gctx, path, cfg, opts)
				results[i] = driver.FileResult{Path: path, Artifact: art, Err: err}
				status := ui.StatusDone
				if err != nil {
					status = ui.StatusError
				}
				events <- ui.Event{File: path, Stage: ui.StageAssemble, Status: status}
				return nil
			})
		}
		_ = g.Wait()
		close(events)
	}()

	model := ui.NewProgressModel(fmt.Sprintf("transpiling %s", dir), files, events)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return results, err
	}
	return results, nil
}
