// Package pipeline orchestrates one build run: lock, preflight, scan,
// registration, bounded execution, manifest persistence, and the ordered
// lifecycle events subscribers depend on.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"imagemill/internal/config"
	"imagemill/internal/executor"
	"imagemill/internal/history"
	"imagemill/internal/ledger"
	"imagemill/internal/logging"
	"imagemill/internal/manifest"
	"imagemill/internal/preflight"
	"imagemill/internal/renditions"
	"imagemill/internal/report"
	"imagemill/internal/scan"
	"imagemill/internal/services"
	"imagemill/internal/task"
)

// Options configures a pipeline. History is optional; a nil store disables
// run persistence.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Reporter *report.Reporter
	History  *history.Store
}

// Pipeline owns one build invocation from lock acquisition to the done event.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	reporter *report.Reporter
	history  *history.Store

	plugins map[report.EventType][]config.Plugin
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID     string
	Items     []scan.Item
	Requested int
	Needed    int
	Summary   executor.Summary
}

// New constructs a pipeline. Plugins bound to unknown hooks are logged and
// dropped here so a bad plugin entry cannot surface mid-run.
func New(opts Options) *Pipeline {
	logger := logging.WithComponent(opts.Logger, "pipeline")
	reporter := opts.Reporter
	if reporter == nil {
		reporter = report.New()
	}

	p := &Pipeline{
		cfg:      opts.Config,
		logger:   logger,
		reporter: reporter,
		history:  opts.History,
		plugins:  map[report.EventType][]config.Plugin{},
	}
	for _, plugin := range opts.Config.Plugins {
		hook := report.EventType(plugin.Hook)
		if !validPluginHook(hook) {
			err := services.Wrap(services.ErrInvalidPlugin, "pipeline", "load plugins", plugin.Hook, nil)
			logger.Warn("skipping plugin with unknown hook",
				logging.String("hook", plugin.Hook),
				logging.String("task", plugin.Task),
				logging.Error(err))
			continue
		}
		p.plugins[hook] = append(p.plugins[hook], plugin)
	}
	return p
}

// Plugins may attach to every batch-level milestone. taskDone is per-task
// and is not a plugin hook.
func validPluginHook(hook report.EventType) bool {
	switch hook {
	case report.EventReady, report.EventTasksReady, report.EventTasksRunning,
		report.EventAllTasksDone, report.EventDone:
		return true
	}
	return false
}

// Run executes the full build. Events are emitted from this one function in
// a fixed order: ready, tasksReady, tasksRunning, taskDone per settled task,
// allTasksDone, then done after both manifests are persisted. A run with
// nothing to do still walks the whole sequence, just without taskDone.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	runID := uuid.New().String()
	logger := p.logger.With(logging.String(logging.FieldRunID, runID))

	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrIO, "pipeline", "prepare directories", "", err)
	}

	runLock := flock.New(filepath.Join(p.cfg.Paths.PublishDir, ".imagemill.lock"))
	locked, err := runLock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "pipeline", "acquire run lock", runLock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("another imagemill run holds %s", runLock.Path())
	}
	defer runLock.Unlock()

	if failed := preflight.Failed(preflight.Run(p.cfg)); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, result := range failed {
			details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
		return nil, services.Wrap(services.ErrMissingDependency, "pipeline", "preflight",
			strings.Join(details, "; "), nil)
	}

	private, err := manifest.LoadPrivate(p.cfg.Paths.PrivateManifest)
	if err != nil {
		return nil, err
	}

	items, err := scan.Directory(p.cfg.Paths.SourceDir, p.cfg.Images.Extensions)
	if err != nil {
		return nil, err
	}
	logger.Info("scanned source directory",
		logging.String("dir", p.cfg.Paths.SourceDir),
		logging.Int("items", len(items)))

	store := ledger.NewStore(private.Ledger, p.cfg.Images.Force)
	registry := task.NewRegistry(items, store, logger)
	builder := renditions.NewBuilder(p.cfg.Images)

	p.emit(ctx, report.Event{Type: report.EventReady})

	entries := make([]manifest.Entry, 0, len(items))
	for _, item := range items {
		entry, err := p.registerItem(registry, builder, item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	manifest.SortEntries(entries)

	entryByID := make(map[string]manifest.Entry, len(entries))
	for _, entry := range entries {
		entryByID[entry.ID] = entry
	}

	requested := len(registry.Requested())
	needed := registry.Needed()
	p.emit(ctx, report.Event{
		Type:    report.EventTasksReady,
		Counts:  report.Counts{Requested: requested, Needed: len(needed)},
		Payload: entriesPayload(entries),
	})

	if p.history != nil {
		if err := p.history.BeginRun(ctx, runID, time.Now()); err != nil {
			return nil, err
		}
	}

	var (
		doneMu    sync.Mutex
		completed int
	)
	exec := executor.New(executor.Options{
		Logger:        logger,
		Limit:         p.cfg.Images.Concurrency,
		Timeout:       time.Duration(p.cfg.Images.TaskTimeout) * time.Second,
		KillOnTimeout: p.cfg.Images.KillOnTimeout,
		OnDone: func(t task.Task, result task.Result) {
			doneMu.Lock()
			if result.Status == task.StatusOK || result.Status == task.StatusFailed {
				completed++
			}
			progress := completed
			doneMu.Unlock()
			var payload map[string]any
			if entry, ok := entryByID[t.ItemID]; ok {
				payload = entry.Meta()
			}
			p.emit(ctx, report.Event{
				Type:    report.EventTaskDone,
				Counts:  report.Counts{Requested: requested, Needed: len(needed), Completed: progress},
				Command: t.Command.DisplayName(),
				Item:    t.ItemID,
				Payload: payload,
			})
			p.recordTask(ctx, runID, t, result)
		},
	})

	p.emit(ctx, report.Event{
		Type:   report.EventTasksRunning,
		Counts: report.Counts{Requested: requested, Needed: len(needed)},
	})
	summary := exec.Run(ctx, needed)
	p.emit(ctx, report.Event{
		Type:   report.EventAllTasksDone,
		Counts: report.Counts{Requested: requested, Needed: len(needed), Completed: summary.Completed},
	})

	private.Ledger = store.Entries()
	private.Paths = sourcePaths(items)
	if err := manifest.SavePrivate(p.cfg.Paths.PrivateManifest, private); err != nil {
		return nil, err
	}
	if err := manifest.SavePublic(p.cfg.Paths.PublicManifest, &manifest.Public{Images: entries}); err != nil {
		return nil, err
	}

	if p.history != nil {
		err := p.history.FinishRun(ctx, history.Run{
			ID:         runID,
			FinishedAt: time.Now(),
			Requested:  requested,
			Needed:     len(needed),
			Completed:  summary.Completed,
			Failed:     summary.Failed,
			TimedOut:   summary.TimedOut,
		})
		if err != nil {
			return nil, err
		}
	}

	p.emit(ctx, report.Event{
		Type:    report.EventDone,
		Counts:  report.Counts{Requested: requested, Needed: len(needed), Completed: summary.Completed},
		Payload: entriesPayload(entries),
	})
	logger.Info("run finished",
		logging.Int("requested", requested),
		logging.Int("needed", len(needed)),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("timed_out", summary.TimedOut))

	return &Outcome{
		RunID:     runID,
		Items:     items,
		Requested: requested,
		Needed:    len(needed),
		Summary:   summary,
	}, nil
}

// registerItem admits the full rendition matrix for one item and returns
// its public manifest entry. JPEG and other formats run the resize command
// directly; PNG renditions run resize then lossy compression as a single
// in-process command so the compressor never races its own input.
func (p *Pipeline) registerItem(registry *task.Registry, builder renditions.Builder, item scan.Item) (manifest.Entry, error) {
	entry := manifest.Entry{
		ID:     item.Slug,
		Ext:    item.Ext,
		Retina: p.cfg.Images.Retina,
		Crop:   builder.CropMetadata(),
	}

	for _, rendition := range renditions.Matrix(p.cfg.Images) {
		outName := rendition.OutputName(item.Slug, item.Ext)
		outPath := filepath.Join(p.cfg.Paths.PublishDir, outName)

		resize, err := builder.ResizeCommand(item.SourcePath, outPath, rendition)
		if err != nil {
			return manifest.Entry{}, services.Wrap(services.ErrProcess, "pipeline", "render command", item.Slug, err)
		}

		cmd := task.Process(resize)
		if item.Ext == "png" {
			compress := builder.CompressCommand(outPath)
			steps := []string{resize, compress}
			cmd = task.InProcess("png-rendition", []byte(strings.Join(steps, "\n")),
				func(ctx context.Context) error {
					for _, step := range steps {
						if err := executor.RunStep(ctx, step); err != nil {
							return err
						}
					}
					return nil
				})
		}

		if err := registry.Register(cmd, item.Slug, outPath, nil, nil); err != nil {
			return manifest.Entry{}, err
		}
		entry.Variants = append(entry.Variants, manifest.Variant{
			Width:  rendition.Width,
			Retina: rendition.Retina,
			File:   outName,
		})
	}
	return entry, nil
}

// emit delivers the event and then runs any plugins bound to its hook.
// Plugin commands run sequentially through the executor so their output
// streams and failures are handled the same way as build tasks.
func (p *Pipeline) emit(ctx context.Context, event report.Event) {
	p.reporter.Emit(event)
	p.logger.Debug("event emitted",
		logging.String(logging.FieldEventType, string(event.Type)))

	plugins := p.plugins[event.Type]
	if len(plugins) == 0 {
		return
	}
	tasks := make([]task.Task, 0, len(plugins))
	for _, plugin := range plugins {
		cmd := task.Process(plugin.Task)
		tasks = append(tasks, task.Task{
			ItemID:    "plugin:" + plugin.Hook,
			Signature: cmd.Signature(),
			Command:   cmd,
		})
	}
	exec := executor.New(executor.Options{
		Logger:        p.logger,
		Limit:         1,
		Timeout:       time.Duration(p.cfg.Images.TaskTimeout) * time.Second,
		KillOnTimeout: p.cfg.Images.KillOnTimeout,
	})
	exec.Run(ctx, tasks)
}

func (p *Pipeline) recordTask(ctx context.Context, runID string, t task.Task, result task.Result) {
	if p.history == nil {
		return
	}
	detail := ""
	if result.Err != nil {
		detail = result.Err.Error()
	}
	rec := history.TaskRecord{
		RunID:      runID,
		Item:       t.ItemID,
		Signature:  t.Signature,
		Status:     string(result.Status),
		DurationMS: result.Duration.Milliseconds(),
		Detail:     detail,
	}
	if err := p.history.RecordTask(ctx, rec); err != nil {
		p.logger.Warn("failed to record task history",
			logging.String(logging.FieldItem, t.ItemID),
			logging.Error(err))
	}
}

func entriesPayload(entries []manifest.Entry) map[string]any {
	images := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		images = append(images, entry.Meta())
	}
	return map[string]any{"images": images}
}

func sourcePaths(items []scan.Item) map[string]string {
	paths := make(map[string]string, len(items))
	for _, item := range items {
		paths[item.Slug] = item.SourcePath
	}
	return paths
}
