package backend

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
)

// Process запущенный процесс бэкенда
type Process interface {
	Pid() int
	// Wait блокируется до завершения процесса
	Wait() error
	// Kill завершает процесс вместе с его группой
	Kill() error
}

// Launcher запускает процесс бэкенда
type Launcher interface {
	Launch(ctx context.Context) (Process, error)
}

// CommandLauncher запускает бэкенд как внешнюю команду
type CommandLauncher struct {
	Command []string
	Dir     string
	// Env дополнительные переменные окружения поверх окружения прокси
	Env []string
}

// ErrNoCommand команда бэкенда не задана
var ErrNoCommand = errors.New("backend command is empty")

// Launch запускает команду; вывод процесса уходит в лог
func (l CommandLauncher) Launch(ctx context.Context) (Process, error) {
	if len(l.Command) == 0 {
		return nil, ErrNoCommand
	}

	cmd := exec.CommandContext(ctx, l.Command[0], l.Command[1:]...)
	configureProcAttrs(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd.Process) }
	cmd.WaitDelay = time.Second
	cmd.Dir = l.Dir
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	stdout := &zapWriter{name: "stdout"}
	stderr := &zapWriter{name: "stderr"}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Log.Info("starting backend process",
		zap.String("executable", cmd.Path),
		zap.Strings("args", cmd.Args))

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	stdout.pid.Store(int64(cmd.Process.Pid))
	stderr.pid.Store(int64(cmd.Process.Pid))

	return &commandProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type commandProcess struct {
	cmd    *exec.Cmd
	stdout *zapWriter
	stderr *zapWriter
}

func (p *commandProcess) Pid() int { return p.cmd.Process.Pid }

// Wait дожидается выхода и выводит в лог недописанные строки
func (p *commandProcess) Wait() error {
	err := p.cmd.Wait()
	p.stdout.Close()
	p.stderr.Close()
	return err
}

func (p *commandProcess) Kill() error { return killProcessGroup(p.cmd.Process) }

// maxLineLen предел строки вывода; более длинная строка режется на части
const maxLineLen = 64 << 10

// zapWriter пишет каждую строку вывода процесса отдельной записью лога.
// Неполная строка копится до следующего перевода строки или Close.
type zapWriter struct {
	name string
	pid  atomic.Int64

	mu  sync.Mutex
	buf []byte
}

func (zw *zapWriter) Write(p []byte) (int, error) {
	zw.mu.Lock()
	defer zw.mu.Unlock()

	zw.buf = append(zw.buf, p...)
	for {
		i := bytes.IndexByte(zw.buf, '\n')
		if i < 0 {
			break
		}
		zw.emit(zw.buf[:i])
		zw.buf = zw.buf[i+1:]
	}
	for len(zw.buf) >= maxLineLen {
		zw.emit(zw.buf[:maxLineLen])
		zw.buf = zw.buf[maxLineLen:]
	}
	if len(zw.buf) == 0 {
		zw.buf = nil
	}
	return len(p), nil
}

// Close выводит остаток без перевода строки
func (zw *zapWriter) Close() error {
	zw.mu.Lock()
	defer zw.mu.Unlock()
	if len(zw.buf) > 0 {
		zw.emit(zw.buf)
		zw.buf = nil
	}
	return nil
}

func (zw *zapWriter) emit(line []byte) {
	logger.Log.Info("backend "+zw.name,
		zap.Int64("pid", zw.pid.Load()),
		zap.String("msg", string(bytes.TrimSuffix(line, []byte("\r")))))
}
