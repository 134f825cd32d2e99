package cgi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"gitlab.com/gitlab-org/tiny-pages/metrics"
)

// DefaultInterpreter is the command scripts are handed to
const DefaultInterpreter = "python3"

//go:generate mockgen -destination mock/mock_runner.go -package mock gitlab.com/gitlab-org/tiny-pages/internal/cgi Runner

// Runner runs a script and returns what it wrote to standard output
type Runner interface {
	Run(ctx context.Context, scriptPath string) ([]byte, error)
}

// Option configures an Executor
type Option func(*Executor)

// Executor runs scripts as child processes. The command line is fixed to
// the interpreter followed by the script path and is never passed to a
// shell.
type Executor struct {
	interpreter string
	timeout     time.Duration
	executions  *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates an Executor that runs scripts with interpreter. An empty
// interpreter executes the script file itself.
func New(interpreter string, opts ...Option) *Executor {
	e := &Executor{
		interpreter: interpreter,
		executions:  metrics.ScriptExecutions,
		duration:    metrics.ScriptDuration,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// WithTimeout bounds how long a script may run, zero means no limit
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.timeout = timeout
	}
}

func (e *Executor) command(scriptPath string) *exec.Cmd {
	var cmd *exec.Cmd
	if e.interpreter == "" {
		cmd = exec.Command(scriptPath)
	} else {
		cmd = exec.Command(e.interpreter, scriptPath)
	}

	// own process group, so that stopping the script also stops its children
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	return cmd
}

// run starts cmd and waits for it. When ctx is done the whole process group
// is killed: children of the script may hold the output pipe open, and Wait
// does not return before they exit.
func run(ctx context.Context, cmd *exec.Cmd) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	pgid := cmd.Process.Pid
	waitDone := make(chan struct{})
	killed := make(chan struct{})

	go func() {
		defer close(killed)

		select {
		case <-ctx.Done():
			if err := unix.Kill(-pgid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
				log.WithError(err).WithField("pgid", pgid).Warn("failed to kill script process group")
			}
		case <-waitDone:
		}
	}()

	err := cmd.Wait()
	close(waitDone)
	<-killed

	return err
}

// Run executes the script and waits for it to finish. It fails when the
// process cannot be started, does not exit successfully, or is stopped
// because ctx is done or the timeout elapsed.
func (e *Executor) Run(ctx context.Context, scriptPath string) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := e.command(scriptPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := run(ctx, cmd)
	e.duration.Observe(time.Since(start).Seconds())
	e.executions.WithLabelValues(strconv.FormatBool(err == nil)).Inc()

	if err != nil {
		log.WithFields(log.Fields{
			"script": scriptPath,
			"args":   cmd.Args,
			"stderr": strings.TrimSpace(stderr.String()),
		}).WithError(err).Debug("script failed")

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("script %q was stopped: %w", scriptPath, ctxErr)
		}

		if cmd.ProcessState == nil {
			return nil, fmt.Errorf("script %q could not be started: %w", scriptPath, err)
		}

		return nil, fmt.Errorf("script %q failed: %w", scriptPath, err)
	}

	return stdout.Bytes(), nil
}
