package ui

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTray_UpdatesBeforeReadyAreDropped(t *testing.T) {
	tray := NewTray(TrayConfig{Logger: discardLogger()})

	// Menu items exist only once the tray loop has built them; updates
	// arriving earlier must not panic.
	tray.UpdateStatus("Exporting", true)
	tray.UpdateFilesCount(3)
}

func TestTray_CancelInvokesCallback(t *testing.T) {
	called := 0
	tray := NewTray(TrayConfig{
		Logger:         discardLogger(),
		OnCancelExport: func() error { called++; return nil },
	})

	tray.handleCancelExport()
	if called != 1 {
		t.Errorf("cancel callback invoked %d times, want 1", called)
	}
}

func TestTray_CancelCallbackErrorIsSwallowed(t *testing.T) {
	tray := NewTray(TrayConfig{
		Logger:         discardLogger(),
		OnCancelExport: func() error { return errors.New("no export running") },
	})
	tray.handleCancelExport()
}
