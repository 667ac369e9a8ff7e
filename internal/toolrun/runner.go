package toolrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// Invocation describes one external tool run: the binary, its arguments, an
// optional working directory, and the log that captures combined output.
// AppendLog keeps the existing log contents; stages set it when several
// invocations share one stage log, so a re-run truncates on the first
// invocation only.
type Invocation struct {
	Tool      string
	Binary    string
	Args      []string
	Dir       string
	LogPath   string
	AppendLog bool
}

// Result reports a completed invocation.
type Result struct {
	ExitCode int
	Duration time.Duration
	LogPath  string
}

// Runner executes invocations. The onLine callback, when non-nil, receives
// every output line in addition to the log file; stages use it to scrape tool
// diagnostics such as alignment rates.
type Runner interface {
	Run(ctx context.Context, inv Invocation, onLine func(string)) (Result, error)
}

// NewRunner returns the production Runner backed by os/exec.
func NewRunner() Runner {
	return commandRunner{}
}

type commandRunner struct{}

func (commandRunner) Run(ctx context.Context, inv Invocation, onLine func(string)) (Result, error) {
	tool := strings.TrimSpace(inv.Tool)
	if tool == "" {
		tool = filepath.Base(inv.Binary)
	}
	if strings.TrimSpace(inv.Binary) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "", tool, "tool binary is not configured", nil)
	}

	sink, err := openLog(inv.LogPath, inv.AppendLog)
	if err != nil {
		return Result{}, services.Wrap(services.ErrInternal, "", tool, "create tool log", err)
	}
	defer sink.Close()

	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...) //nolint:gosec
	cmd.Dir = inv.Dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, services.Wrap(services.ErrInternal, "", tool, "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, services.Wrap(services.ErrInternal, "", tool, "stderr pipe", err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "", tool, "start "+inv.Binary, err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			sink.WriteLine(line)
			if onLine != nil {
				onLine(line)
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return Result{LogPath: inv.LogPath}, services.Wrap(services.ErrInternal, "", tool, "scan output", scanErr)
	}

	waitErr := cmd.Wait()
	result := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(started),
		LogPath:  inv.LogPath,
	}
	if waitErr == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return result, fmt.Errorf("%s: %w", tool, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		message := fmt.Sprintf("exited with status %d", result.ExitCode)
		if inv.LogPath != "" {
			message += " (log: " + inv.LogPath + ")"
		}
		return result, services.Wrap(services.ErrExternalTool, "", tool, message, nil)
	}
	return result, services.Wrap(services.ErrExternalTool, "", tool, "wait for "+inv.Binary, waitErr)
}

// logSink serializes line writes from the two output scanners. A nil file
// discards output.
type logSink struct {
	mu   sync.Mutex
	file *os.File
}

func openLog(path string, appendLog bool) (*logSink, error) {
	if strings.TrimSpace(path) == "" {
		return &logSink{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendLog {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, err
	}
	return &logSink{file: file}, nil
}

func (s *logSink) WriteLine(line string) {
	if s.file == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.file, line)
}

func (s *logSink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
