// Package ui provides the system tray surface of the agent: a status glance
// and a quit control. Everything else happens over the HTTP API.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

type Tray struct {
	logger *slog.Logger

	statusItem *systray.MenuItem
	filesItem  *systray.MenuItem
	cancelItem *systray.MenuItem

	mu sync.Mutex

	onCancelExport func() error
	onQuit         func()
}

type TrayConfig struct {
	Logger         *slog.Logger
	OnCancelExport func() error
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		logger:         cfg.Logger,
		onCancelExport: cfg.OnCancelExport,
		onQuit:         cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Clipx")
	systray.SetTooltip("Clipx Agent")

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.filesItem = systray.AddMenuItem("Files: 0", "Registered source videos")
	t.filesItem.Disable()

	systray.AddSeparator()

	t.cancelItem = systray.AddMenuItem("Cancel Export", "Cancel the running export")
	t.cancelItem.Disable()
	t.mu.Unlock()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Clipx Agent")

	go func() {
		for {
			select {
			case <-t.cancelItem.ClickedCh:
				t.handleCancelExport()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) handleCancelExport() {
	if t.onCancelExport != nil {
		if err := t.onCancelExport(); err != nil {
			t.logger.Error("failed to cancel export", "error", err)
		}
	}
}

// UpdateStatus reflects the agent state in the menu and enables the cancel
// item only while an export is running. Updates arriving before the tray
// loop has built its menu are dropped.
func (t *Tray) UpdateStatus(status string, exporting bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.statusItem == nil {
		return
	}

	t.statusItem.SetTitle("Status: " + status)
	if exporting {
		t.cancelItem.Enable()
	} else {
		t.cancelItem.Disable()
	}
}

func (t *Tray) UpdateFilesCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.filesItem == nil {
		return
	}
	t.filesItem.SetTitle(fmt.Sprintf("Files: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
