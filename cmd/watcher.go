package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"protocol-cli/cmd/config"
	"protocol-cli/cmd/utils"
)

// configChangedMsg carries a freshly reloaded config file.
type configChangedMsg struct {
	path string
	cfg  *config.Config
}

// debounceDuration is how long a file must stay quiet before it is reloaded.
const debounceDuration = 100 * time.Millisecond

// ConfigWatcher reloads protocol config files in a set of directories and
// reports each successful reload on Messages.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	msgs    chan tea.Msg
	done    chan struct{}
	once    sync.Once
}

// StartConfigWatcher watches dirs for config file writes. Directories are
// watched rather than files so that editors replacing the file by rename are
// still noticed. Missing directories are skipped.
func StartConfigWatcher(dirs ...string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	watched := 0
	seen := map[string]bool{}
	for _, dir := range dirs {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.Add(dir); err != nil {
			utils.LogDebugf("config watcher: cannot watch %s: %v", dir, err)
			continue
		}
		utils.LogDebugf("config watcher: watching %s", dir)
		watched++
	}
	if watched == 0 {
		w.Close()
		return nil, fmt.Errorf("no config directories to watch")
	}

	cw := &ConfigWatcher{
		watcher: w,
		msgs:    make(chan tea.Msg, 1),
		done:    make(chan struct{}),
	}
	go cw.loop()
	return cw, nil
}

// Messages delivers configChangedMsg values. Only the latest pending reload
// is kept.
func (cw *ConfigWatcher) Messages() <-chan tea.Msg { return cw.msgs }

func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) loop() {
	pending := make(map[string]struct{})
	timer := time.NewTimer(debounceDuration)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !config.IsConfigFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(debounceDuration)

		case <-timer.C:
			for path := range pending {
				cfg, err := config.LoadConfigFile(path)
				if err != nil {
					utils.LogDebugf("config watcher: reload of %s failed: %v", path, err)
					continue
				}
				cw.publish(configChangedMsg{path: path, cfg: cfg})
				utils.LogDebugf("config watcher: reloaded %s", path)
			}
			clear(pending)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			utils.LogDebugf("config watcher error: %v", err)
		}
	}
}

// publish replaces any undelivered message with msg.
func (cw *ConfigWatcher) publish(msg tea.Msg) {
	for {
		select {
		case cw.msgs <- msg:
			return
		default:
		}
		select {
		case <-cw.msgs:
		default:
		}
	}
}

// configWatchDirs returns the directories a running session should watch:
// the directory of the loaded config file, or the cwd and data dir when no
// file was found.
func configWatchDirs(configPath string) []string {
	if configPath != "" {
		return []string{filepath.Dir(configPath)}
	}
	dirs := []string{utils.GetEffectiveCWD()}
	if dataDir, err := utils.GetDataDir(); err == nil {
		dirs = append(dirs, dataDir)
	}
	return dirs
}
