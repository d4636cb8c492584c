// Package watcher turns changes to a freshness marker file into
// invalidation of stale index handles.
//
// Rebuilds touch the marker; every process serving the index watches it.
// The watcher uses fsnotify on the marker's directory and falls back to
// polling the marker's modification time where fsnotify is unavailable
// (network mounts, some container volumes). Rapid touches are debounced
// into one signal.
//
// Usage:
//
//	sig := watcher.NewSignal(filepath.Join(root, ".signal"))
//	w, err := watcher.New(sig, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx)
//	for changed := range w.Events() {
//	    watcher.Refresh(manager, names, changed)
//	}
package watcher
