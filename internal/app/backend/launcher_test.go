package backend

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestHelperProcess не тест: его запускает CommandLauncher в роли бэкенда
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprintln(os.Stdout, "backend listening")
	fmt.Fprintln(os.Stderr, "warming up")
	if os.Getenv("HELPER_EXIT_NOW") == "1" {
		os.Exit(3)
	}
	time.Sleep(time.Minute)
	os.Exit(0)
}

func helperLauncher(extraEnv ...string) CommandLauncher {
	return CommandLauncher{
		Command: []string{os.Args[0], "-test.run=TestHelperProcess"},
		Env:     append([]string{"GO_WANT_HELPER_PROCESS=1"}, extraEnv...),
	}
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })
	return logs
}

func TestCommandLauncher_EmptyCommand(t *testing.T) {
	_, err := CommandLauncher{}.Launch(context.Background())
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestCommandLauncher_LogsOutputAndKills(t *testing.T) {
	logs := observeLogs(t)

	p, err := helperLauncher().Launch(context.Background())
	require.NoError(t, err)
	assert.Positive(t, p.Pid())

	require.Eventually(t, func() bool {
		return logs.FilterMessage("backend stdout").FilterField(zap.String("msg", "backend listening")).Len() == 1 &&
			logs.FilterMessage("backend stderr").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Kill())
	assert.Error(t, p.Wait())
}

func TestSupervisor_WithCommandLauncher(t *testing.T) {
	observeLogs(t)

	s := NewSupervisor(helperLauncher("HELPER_EXIT_NOW=1"), 5*time.Second)
	defer s.Stop(context.Background())

	_, err := s.Ensure(context.Background())
	require.ErrorIs(t, err, ErrExited)
	assert.Equal(t, Absent, s.State())

	s2 := NewSupervisor(helperLauncher(), 50*time.Millisecond)
	h, err := s2.Ensure(context.Background())
	require.NoError(t, err)
	assert.Positive(t, h.Pid)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s2.Stop(ctx))
	assert.Equal(t, Absent, s2.State())
}

func TestZapWriter_JoinsSplitLines(t *testing.T) {
	logs := observeLogs(t)
	w := &zapWriter{name: "stdout"}
	w.pid.Store(99)

	w.Write([]byte("Running on http://127.0.0"))
	assert.Zero(t, logs.Len(), "partial line must wait for the newline")

	w.Write([]byte(".1:5000\r\nwarm"))
	w.Write([]byte("ing up"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Running on http://127.0.0.1:5000", logs.All()[0].ContextMap()["msg"])
	assert.EqualValues(t, 99, logs.All()[0].ContextMap()["pid"])

	require.NoError(t, w.Close())
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "warming up", logs.All()[1].ContextMap()["msg"])

	require.NoError(t, w.Close())
	assert.Equal(t, 2, logs.Len(), "second Close has nothing to flush")
}

func TestZapWriter_CapsLongLines(t *testing.T) {
	logs := observeLogs(t)
	w := &zapWriter{name: "stderr"}

	n, err := w.Write(make([]byte, maxLineLen+10))
	require.NoError(t, err)
	assert.Equal(t, maxLineLen+10, n)
	assert.Equal(t, 1, logs.Len())

	w.Close()
	assert.Equal(t, 2, logs.Len())
}
