package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"imagemill/internal/config"
	"imagemill/internal/history"
	"imagemill/internal/logging"
	"imagemill/internal/manifest"
	"imagemill/internal/report"
)

// testConfig builds a runnable config over temp directories. The command
// templates use cp and touch so runs exercise real external processes
// without the image tools installed.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(root, "source")
	cfg.Paths.PublishDir = filepath.Join(root, "publish")
	cfg.Paths.PublicManifest = filepath.Join(root, "publish", "images.json")
	cfg.Paths.PrivateManifest = filepath.Join(root, "state", "private.json")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.HistoryDB = filepath.Join(root, "state", "history.db")
	cfg.Images.Extensions = []string{"jpg", "png"}
	cfg.Images.Widths = []int{320}
	cfg.Images.Retina = false
	cfg.Images.Filters = nil
	cfg.Images.CommandTemplate = "cp {in} {out}"
	cfg.Images.PNGCompressCommand = "touch {out}"
	cfg.Images.Concurrency = 1
	cfg.Images.TaskTimeout = 30
	cfg.Dependencies = nil
	cfg.Plugins = nil

	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	return &cfg
}

func writeSource(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	path := filepath.Join(cfg.Paths.SourceDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source %s: %v", name, err)
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []report.Event
}

func (l *eventLog) record(event report.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) types() []report.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]report.EventType, len(l.events))
	for i, event := range l.events {
		out[i] = event.Type
	}
	return out
}

func runPipeline(t *testing.T, cfg *config.Config, log *eventLog) *Outcome {
	t.Helper()
	reporter := report.New()
	if log != nil {
		reporter.Subscribe(log.record)
	}
	p := New(Options{Config: cfg, Logger: logging.NewNop(), Reporter: reporter})
	outcome, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return outcome
}

func assertSequence(t *testing.T, got []report.EventType, want []report.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRunEmitsOrderedEvents(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "Hero Shot.jpg", "jpeg-bytes")
	writeSource(t, cfg, "banner.jpg", "more-bytes")

	log := &eventLog{}
	outcome := runPipeline(t, cfg, log)

	assertSequence(t, log.types(), []report.EventType{
		report.EventReady,
		report.EventTasksReady,
		report.EventTasksRunning,
		report.EventTaskDone,
		report.EventTaskDone,
		report.EventAllTasksDone,
		report.EventDone,
	})
	if outcome.Requested != 2 || outcome.Needed != 2 {
		t.Fatalf("requested/needed = %d/%d, want 2/2", outcome.Requested, outcome.Needed)
	}
	if outcome.Summary.Completed != 2 || outcome.Summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", outcome.Summary)
	}

	for _, name := range []string{"hero-shot-320.jpg", "banner-320.jpg"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.PublishDir, name)); err != nil {
			t.Fatalf("rendition %s not published: %v", name, err)
		}
	}
}

func (l *eventLog) byType(eventType report.EventType) []report.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []report.Event
	for _, event := range l.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func TestTwoWidthsReportSeparately(t *testing.T) {
	cfg := testConfig(t)
	cfg.Images.Widths = []int{320, 640}
	writeSource(t, cfg, "photo.jpg", "bytes")

	log := &eventLog{}
	outcome := runPipeline(t, cfg, log)
	if outcome.Requested != 2 || outcome.Needed != 2 {
		t.Fatalf("requested/needed = %d/%d, want 2/2", outcome.Requested, outcome.Needed)
	}

	done := log.byType(report.EventTaskDone)
	if len(done) != 2 {
		t.Fatalf("taskDone events = %d, want 2", len(done))
	}
	if done[0].Item != "photo" || done[1].Item != "photo" {
		t.Fatalf("both tasks should share the item id: %+v", done)
	}
	if done[0].Command == done[1].Command {
		t.Fatalf("widths should produce distinct commands: %q", done[0].Command)
	}
	for _, event := range done {
		if event.Payload["id"] != "photo" {
			t.Fatalf("taskDone should carry item metadata: %+v", event.Payload)
		}
	}
}

func TestRerunWithNothingNeededSkipsTaskDone(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "photo.jpg", "bytes")

	runPipeline(t, cfg, nil)

	log := &eventLog{}
	outcome := runPipeline(t, cfg, log)

	assertSequence(t, log.types(), []report.EventType{
		report.EventReady,
		report.EventTasksReady,
		report.EventTasksRunning,
		report.EventAllTasksDone,
		report.EventDone,
	})
	if outcome.Requested != 1 || outcome.Needed != 0 {
		t.Fatalf("requested/needed = %d/%d, want 1/0", outcome.Requested, outcome.Needed)
	}
}

func TestRerunAfterSourceChange(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "photo.jpg", "original")
	runPipeline(t, cfg, nil)

	writeSource(t, cfg, "photo.jpg", "edited")
	outcome := runPipeline(t, cfg, nil)
	if outcome.Needed != 1 {
		t.Fatalf("changed source should re-admit, needed = %d", outcome.Needed)
	}
}

func TestForceReadmitsEverything(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "photo.jpg", "bytes")
	runPipeline(t, cfg, nil)

	cfg.Images.Force = true
	outcome := runPipeline(t, cfg, nil)
	if outcome.Needed != 1 {
		t.Fatalf("force run should re-admit, needed = %d", outcome.Needed)
	}
}

func TestManifestsPersisted(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "photo.jpg", "bytes")
	runPipeline(t, cfg, nil)

	public, err := manifest.LoadPublic(cfg.Paths.PublicManifest)
	if err != nil {
		t.Fatalf("LoadPublic: %v", err)
	}
	if len(public.Images) != 1 {
		t.Fatalf("public entries = %d, want 1", len(public.Images))
	}
	entry := public.Images[0]
	if entry.ID != "photo" || entry.Ext != "jpg" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if len(entry.Variants) != 1 || entry.Variants[0].File != "photo-320.jpg" {
		t.Fatalf("unexpected variants: %+v", entry.Variants)
	}

	private, err := manifest.LoadPrivate(cfg.Paths.PrivateManifest)
	if err != nil {
		t.Fatalf("LoadPrivate: %v", err)
	}
	if len(private.Ledger["photo"]) != 1 {
		t.Fatalf("ledger not persisted: %+v", private.Ledger)
	}
	if private.Paths["photo"] == "" {
		t.Fatalf("source path not recorded: %+v", private.Paths)
	}
}

func TestPNGRenditionRunsBothSteps(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "logo.png", "png-bytes")

	outcome := runPipeline(t, cfg, nil)
	if outcome.Needed != 1 {
		t.Fatalf("needed = %d, want 1", outcome.Needed)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.PublishDir, "logo-320.png")); err != nil {
		t.Fatalf("png rendition not published: %v", err)
	}

	private, err := manifest.LoadPrivate(cfg.Paths.PrivateManifest)
	if err != nil {
		t.Fatalf("LoadPrivate: %v", err)
	}
	var signature string
	for sig := range private.Ledger["logo"] {
		signature = sig
	}
	if !strings.HasPrefix(signature, "png-rendition#") {
		t.Fatalf("png commands should use the in-process signature, got %q", signature)
	}
}

func TestRetinaMatrix(t *testing.T) {
	cfg := testConfig(t)
	cfg.Images.Retina = true
	writeSource(t, cfg, "photo.jpg", "bytes")

	outcome := runPipeline(t, cfg, nil)
	if outcome.Requested != 2 {
		t.Fatalf("retina should double the matrix, requested = %d", outcome.Requested)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.PublishDir, "photo-320@2x.jpg")); err != nil {
		t.Fatalf("retina rendition not published: %v", err)
	}
}

func TestPluginRunsAtHook(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "photo.jpg", "bytes")
	marker := filepath.Join(t.TempDir(), "plugin-ran")
	cfg.Plugins = []config.Plugin{
		{Hook: "done", Task: "touch " + marker},
		{Hook: "taskDone", Task: "touch /nonexistent/never"},
	}

	runPipeline(t, cfg, nil)
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("done plugin did not run: %v", err)
	}
}

func TestHistoryRecorded(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "photo.jpg", "bytes")

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()

	reporter := report.New()
	p := New(Options{Config: cfg, Logger: logging.NewNop(), Reporter: reporter, History: store})
	outcome, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	runs, err := store.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != outcome.RunID {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].Completed != 1 {
		t.Fatalf("run completed = %d, want 1", runs[0].Completed)
	}

	tasks, err := store.TasksForRun(context.Background(), outcome.RunID)
	if err != nil {
		t.Fatalf("TasksForRun: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Item != "photo" {
		t.Fatalf("unexpected task records: %+v", tasks)
	}
}
