package ffmpeg

import (
	"context"
	"runtime"
	"testing"
	"time"
)

func requireSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("supervisor tests use sh")
	}
}

func TestSupervisor_StreamsLines(t *testing.T) {
	requireSh(t)
	s := NewSupervisor(nil)

	var lines []string
	res := s.Run(context.Background(),
		[]string{"sh", "-c", "echo one 1>&2; echo two 1>&2"},
		func(line string) { lines = append(lines, line) })

	if !res.OK() {
		t.Fatalf("Run() = %+v, want success", res)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v, want [one two]", lines)
	}
	if res.Message() != "" {
		t.Errorf("Message() = %q, want empty on success", res.Message())
	}
}

func TestSupervisor_ExitFailure(t *testing.T) {
	requireSh(t)
	s := NewSupervisor(nil)

	res := s.Run(context.Background(), []string{"sh", "-c", "exit 3"}, nil)
	if res.OK() {
		t.Fatal("Run() reported success for non-zero exit")
	}
	if res.Cancelled {
		t.Error("non-zero exit must not report Cancelled")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Message() != "exit code 3" {
		t.Errorf("Message() = %q, want %q", res.Message(), "exit code 3")
	}
}

func TestSupervisor_LaunchFailure(t *testing.T) {
	s := NewSupervisor(nil)

	res := s.Run(context.Background(), []string{"/nonexistent/binary-xyz"}, nil)
	if res.OK() || res.Err == nil {
		t.Fatalf("Run() = %+v, want launch failure", res)
	}
	if res.Message() == "" {
		t.Error("launch failure must carry the system error text")
	}
}

func TestSupervisor_Cancellation(t *testing.T) {
	requireSh(t)
	s := NewSupervisor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := s.Run(ctx, []string{"sh", "-c", "sleep 30"}, nil)
	elapsed := time.Since(start)

	if !res.Cancelled {
		t.Fatalf("Run() = %+v, want Cancelled", res)
	}
	if elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, child was not killed", elapsed)
	}
	if res.Message() != "cancelled" {
		t.Errorf("Message() = %q, want cancelled", res.Message())
	}
}

func TestSupervisor_OversizedLineDoesNotStall(t *testing.T) {
	requireSh(t)
	s := NewSupervisor(nil)

	// A single 2MB line overflows the scanner buffer; the run must still
	// drain the pipe and observe the clean exit.
	var lines []string
	res := s.Run(context.Background(),
		[]string{"sh", "-c", "echo first 1>&2; head -c 2097280 /dev/zero | tr '\\0' a 1>&2; echo 1>&2"},
		func(line string) { lines = append(lines, line) })

	if !res.OK() {
		t.Fatalf("Run() = %+v, want success", res)
	}
	if len(lines) == 0 || lines[0] != "first" {
		t.Errorf("lines = %v, want the line before the oversized one delivered", lines)
	}
}

func TestSupervisor_PreCancelled(t *testing.T) {
	s := NewSupervisor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	res := s.Run(ctx, []string{"sh", "-c", "echo ran 1>&2"}, func(string) { called = true })
	if !res.Cancelled {
		t.Fatalf("Run() = %+v, want Cancelled before launch", res)
	}
	if called {
		t.Error("no output should be observed for a pre-cancelled run")
	}
}

func TestSupervisor_EmptyCommand(t *testing.T) {
	s := NewSupervisor(nil)
	if res := s.Run(context.Background(), nil, nil); res.OK() || res.Err == nil {
		t.Errorf("Run() = %+v, want error for empty argv", res)
	}
}
