package scripting

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watcher reports Lua files rewritten under a directory. Run owns the
// fsnotify goroutine side; Changed is drained from the game loop.
type Watcher struct {
	dir     string
	fs      *fsnotify.Watcher
	changed chan string
	log     *zap.Logger
}

func NewWatcher(dir string, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "create script watcher")
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, eris.Wrapf(err, "watch %s", dir)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{dir: dir, fs: fw, changed: make(chan string, 32), log: log}, nil
}

// Run forwards write and create events for .lua files until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(ev.Name) != ".lua" {
				continue
			}
			rel, err := filepath.Rel(w.dir, ev.Name)
			if err != nil {
				rel = ev.Name
			}
			select {
			case w.changed <- rel:
			default:
				w.log.Warn("script change dropped", zap.String("file", rel))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Error("script watcher error", zap.Error(err))
		}
	}
}

// Changed drains pending changes without blocking. Duplicates collapse.
func (w *Watcher) Changed() []string {
	var out []string
	seen := map[string]bool{}
	for {
		select {
		case f := <-w.changed:
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		default:
			return out
		}
	}
}
