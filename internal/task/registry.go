package task

import (
	"log/slog"
	"os"

	"imagemill/internal/ledger"
	"imagemill/internal/logging"
	"imagemill/internal/scan"
	"imagemill/internal/services"
)

// Registry is the sole admission point into the execution pipeline.
// Every registered command lands on the requested list; only commands the
// ledger says must run land on the needed list.
type Registry struct {
	items  map[string]scan.Item
	ledger ledger.Ledger
	logger *slog.Logger

	requested []Task
	needed    []Task
}

// NewRegistry builds a registry over the scanned items.
func NewRegistry(items []scan.Item, led ledger.Ledger, logger *slog.Logger) *Registry {
	return &Registry{
		items:  scan.Index(items),
		ledger: led,
		logger: logging.WithComponent(logger, "registry"),
	}
}

// Register admits a command for the given item. Unknown slugs fail; callers
// are expected to only reference items produced by the directory scan.
// Needed commands are recorded in the ledger immediately, before they run.
func (r *Registry) Register(cmd Command, itemID, outputPath string, onComplete func(Result), onTimeout func()) error {
	item, ok := r.items[itemID]
	if !ok {
		return services.Wrap(services.ErrUnknownItem, "registry", "register", itemID, nil)
	}

	signature := cmd.Signature()
	entry := Task{
		ItemID:     itemID,
		Signature:  signature,
		Command:    cmd,
		OutputPath: outputPath,
		OnComplete: onComplete,
		OnTimeout:  onTimeout,
	}
	r.requested = append(r.requested, entry)

	needed := r.ledger.NeedsRun(itemID, signature, item.Fingerprint, outputExists(outputPath))
	if !needed {
		r.logger.Debug("command satisfied",
			logging.String(logging.FieldItem, itemID),
			logging.String(logging.FieldSignature, signature))
		return nil
	}

	r.ledger.Record(itemID, signature, item.Fingerprint)
	r.needed = append(r.needed, entry)
	r.logger.Debug("command admitted",
		logging.String(logging.FieldItem, itemID),
		logging.String(logging.FieldSignature, signature))
	return nil
}

// Item returns the scanned item for a slug.
func (r *Registry) Item(itemID string) (scan.Item, bool) {
	item, ok := r.items[itemID]
	return item, ok
}

// Requested returns every registered task in registration order.
func (r *Registry) Requested() []Task {
	return r.requested
}

// Needed returns the subset that must execute this run, in registration order.
func (r *Registry) Needed() []Task {
	return r.needed
}

func outputExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
