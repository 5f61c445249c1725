package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/agentflare-ai/gendoc/internal/sources"
)

// settleDelay batches bursts of events from a single save.
const settleDelay = 200 * time.Millisecond

// watch regenerates the whole tree after sources under j.root change, until
// ctx is cancelled.
func (app *cliApp) watch(ctx context.Context, j *job) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	root := j.root
	only := ""
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		only = filepath.Base(root)
		root = filepath.Dir(root)
	}
	m, err := sources.LoadMatcher(root, j.cfg.IgnoreFile, j.cfg.Exclude)
	if err != nil {
		return err
	}
	if err := addWatchDirs(watcher, root, m); err != nil {
		return err
	}
	app.log.WithField("root", j.root).Info("watching for changes")

	timer := time.NewTimer(settleDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if rel, err := filepath.Rel(root, event.Name); err == nil && !m.Excluded(rel) {
						if err := addWatchDirs(watcher, event.Name, nil); err != nil {
							app.log.WithError(err).WithField("dir", event.Name).Warn("cannot watch new directory")
						}
					}
				}
			}
			rel, ok := relevantEvent(root, event, m)
			if !ok || (only != "" && rel != only) {
				continue
			}
			app.log.WithFields(logrus.Fields{"file": rel, "event": event.Op.String()}).Debug("source changed")
			timer.Reset(settleDelay)
		case <-timer.C:
			if err := app.documentTree(ctx, j); err != nil {
				app.log.WithError(err).Error("regeneration failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			app.log.WithError(err).Warn("watcher error")
		}
	}
}

// relevantEvent reports the slash-separated path of a changed source that
// is not excluded.
func relevantEvent(root string, event fsnotify.Event, m *sources.Matcher) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	if !sources.IsSource(event.Name) {
		return "", false
	}
	rel, err := filepath.Rel(root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if m.Excluded(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addWatchDirs watches dir and every directory below it that m does not
// exclude.
func addWatchDirs(watcher *fsnotify.Watcher, dir string, m *sources.Matcher) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(dir, path); err == nil && rel != "." && m.Excluded(rel) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
