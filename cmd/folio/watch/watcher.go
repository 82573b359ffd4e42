package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ingestcmder "github.com/papercomputeco/folio/cmd/folio/ingest"
	"github.com/papercomputeco/folio/pkg/ingest/worker"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// Ingester is what the watcher drives: page writes through the worker pool
// and deletes for removed files.
type Ingester interface {
	worker.Ingestor
	Delete(ctx context.Context, documentID string) error
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Dir      string
	WikiID   string
	Tags     []string
	Ingester Ingester

	// Known maps file paths to the documents already holding them. Changes
	// to a known file update that document instead of creating a page.
	Known map[string]string

	Workers  uint
	Debounce time.Duration
	Out      io.Writer
	Logger   *slog.Logger
}

type fileState struct {
	docID    string
	inFlight bool
	dirty    bool
	removed  bool
	timer    *time.Timer
}

// Watcher mirrors the page files of one directory into a wiki.
type Watcher struct {
	config *WatcherConfig
	logger *slog.Logger

	mu     sync.Mutex
	files  map[string]*fileState
	pool   *worker.Pool
	ctx    context.Context
	closed bool
}

// NewWatcher validates c and returns a Watcher ready to Run.
func NewWatcher(c *WatcherConfig) (*Watcher, error) {
	if c.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if c.WikiID == "" {
		return nil, errors.New("wiki id is required")
	}
	if c.Ingester == nil {
		return nil, errors.New("ingester is required")
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Out == nil {
		c.Out = io.Discard
	}

	log := c.Logger
	if log == nil {
		log = slog.Default()
	}

	w := &Watcher{
		config: c,
		logger: log,
		files:  map[string]*fileState{},
	}
	for path, docID := range c.Known {
		w.files[filepath.Clean(path)] = &fileState{docID: docID}
	}
	return w, nil
}

// DocumentID returns the document tracked for path, if any.
func (w *Watcher) DocumentID(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.files[filepath.Clean(path)]
	if !ok || st.docID == "" {
		return "", false
	}
	return st.docID, true
}

// Run watches the directory until ctx is done. Pending jobs are drained
// before it returns.
func (w *Watcher) Run(ctx context.Context, ready func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.config.Dir, err)
	}

	pool, err := worker.NewPool(ctx, &worker.Config{
		Ingester:   w.config.Ingester,
		NumWorkers: w.config.Workers,
		OnDone:     w.done,
		Logger:     w.logger,
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.pool = pool
	w.ctx = ctx
	w.mu.Unlock()
	defer w.shutdown()

	w.logger.Info("watching directory", "dir", w.config.Dir, "wiki_id", w.config.WikiID)
	if ready != nil {
		ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !ingestcmder.IsPageFile(path) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.remove(path)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.schedule(path)
	}
}

// schedule (re)arms the debounce timer of path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	st := w.state(path)
	st.removed = false
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(w.config.Debounce, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	st := w.state(path)
	st.timer = nil
	if st.inFlight {
		st.dirty = true
		return
	}

	job, err := ingestcmder.JobForFile(path, w.config.WikiID, w.config.Tags)
	if err != nil {
		w.logger.Warn("skipping unreadable file", "path", path, "error", err)
		return
	}
	job.DocumentID = st.docID

	if !w.pool.Enqueue(job) {
		return
	}
	st.inFlight = true
}

// done runs on a pool worker after each job.
func (w *Watcher) done(o worker.Outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ingestcmder.PrintOutcome(w.config.Out, o)

	st := w.state(o.Job.Source)
	st.inFlight = false
	if o.Err == nil && st.docID == "" {
		st.docID = o.Result.Document.ID
	}

	if st.removed {
		w.deleteLocked(o.Job.Source, st)
		return
	}

	if st.dirty && !w.closed {
		st.dirty = false
		path := o.Job.Source
		st.timer = time.AfterFunc(w.config.Debounce, func() { w.fire(path) })
	}
}

func (w *Watcher) remove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.files[path]
	if !ok {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	if st.inFlight {
		st.removed = true
		return
	}
	w.deleteLocked(path, st)
}

func (w *Watcher) deleteLocked(path string, st *fileState) {
	delete(w.files, path)
	if st.docID == "" {
		return
	}

	err := w.config.Ingester.Delete(w.ctx, st.docID)
	if err != nil {
		w.logger.Error("deleting page failed", "path", path, "document_id", st.docID, "error", err)
	} else {
		w.logger.Info("page deleted", "path", path, "document_id", st.docID)
	}
	fmt.Fprintf(w.config.Out, "  - %s %s\n", path, st.docID)
}

func (w *Watcher) state(path string) *fileState {
	st, ok := w.files[path]
	if !ok {
		st = &fileState{}
		w.files[path] = st
	}
	return st
}

// shutdown stops pending timers and drains the pool.
func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.closed = true
	for _, st := range w.files {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
	pool := w.pool
	w.mu.Unlock()

	pool.Close()
}

// MatchExisting pairs the page files in dir with documents of the wiki whose
// title matches the file's derived title. Titles held by more than one
// document are left unmatched. The unmatched files are returned as well.
func MatchExisting(dir string, titles map[string][]string) (known map[string]string, unmatched []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	known = map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !ingestcmder.IsPageFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ids := titles[ingestcmder.TitleFromPath(path)]
		if len(ids) == 1 {
			known[path] = ids[0]
			continue
		}
		unmatched = append(unmatched, path)
	}
	return known, unmatched, nil
}
