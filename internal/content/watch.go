package content

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Source provides the current site.
type Source interface {
	Site() *Site
}

type static struct{ site *Site }

func (s static) Site() *Site { return s.site }

// Static returns a Source that always serves site.
func Static(site *Site) Source {
	return static{site: site}
}

// Watcher serves a content file from disk and reloads it when it changes.
// An invalid edit is logged and the previous site keeps being served.
type Watcher struct {
	path    string
	current atomic.Pointer[Site]
}

// NewWatcher loads path and returns a watcher serving it.
func NewWatcher(path string) (*Watcher, error) {
	w := &Watcher{path: path}
	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Site returns the most recent valid site.
func (w *Watcher) Site() *Site {
	return w.current.Load()
}

// Reload re-reads the file. The served site is only replaced when the new
// content parses and validates.
func (w *Watcher) Reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("reading content %s: %w", w.path, err)
	}
	site, err := Parse(data)
	if err != nil {
		return err
	}
	w.current.Store(site)
	return nil
}

// Run watches the file's directory until ctx is done. The directory is
// watched rather than the file so editors that save by rename are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating content watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", w.path, err)
	}

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.Reload(); err != nil {
				log.Printf("Content reload failed, keeping previous version: %v", err)
				continue
			}
			log.Printf("Content reloaded from %s", w.path)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Content watcher error: %v", err)
		}
	}
}
