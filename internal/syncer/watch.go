package syncer

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/lifeos/internal/transfer"
)

// startWatcher imports every backup dropped into the watch dir as if the user
// had picked it from the import dialog.
func (o *Orchestrator) startWatcher() error {
	if err := os.MkdirAll(o.opts.WatchDir, 0o755); err != nil {
		return fmt.Errorf("syncer: create watch dir: %w", err)
	}
	w, err := transfer.NewWatcher(o.opts.WatchDir, 0)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}
	o.mu.Lock()
	o.watcher = w
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-o.ctx.Done():
				return
			case path := <-w.Files():
				_ = o.ImportFile(path)
			case err := <-w.Errors():
				o.logger.WithError(err).Warn("import watcher error")
			}
		}
	}()
	o.logger.WithField("dir", o.opts.WatchDir).Info("watching for dropped backups")
	return nil
}
