package gateway

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	bridgeerrors "tallybridge/pkg/errors"
	"tallybridge/pkg/logger"
)

// ProcessConfig holds configuration for the engine process manager
type ProcessConfig struct {
	// ProcessName is the pattern used to probe for a running engine process
	ProcessName string
	// StartCommand launches the engine; the first element is the binary
	StartCommand []string
	// StopCommand terminates the engine before a restart
	StopCommand []string
	// StartupGrace is how long a restart waits after stopping the old
	// process before launching the new one
	StartupGrace time.Duration
}

// DefaultProcessConfig returns the probe and launch commands for a local
// engine installation
func DefaultProcessConfig() *ProcessConfig {
	return &ProcessConfig{
		ProcessName:  "tally",
		StartCommand: []string{"tally"},
		StopCommand:  []string{"pkill", "-f", "tally"},
		StartupGrace: 2 * time.Second,
	}
}

// Validate validates the process manager configuration
func (c *ProcessConfig) Validate() error {
	if c.ProcessName == "" {
		return fmt.Errorf("process name cannot be empty")
	}
	if len(c.StartCommand) == 0 {
		return fmt.Errorf("start command cannot be empty")
	}
	return nil
}

// ProcessManager probes and controls the local engine process. The
// dispatcher uses the probe to split a refused connection into "engine not
// running" versus "engine running but unresponsive".
type ProcessManager struct {
	config *ProcessConfig
	log    logger.Logger
}

// NewProcessManager creates a new engine process manager
func NewProcessManager(config *ProcessConfig) (*ProcessManager, error) {
	if config == nil {
		config = DefaultProcessConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, bridgeerrors.ConfigurationError(
			bridgeerrors.CodeInvalidConfig, "process", config, err)
	}

	return &ProcessManager{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("process"),
	}, nil
}

// Running reports whether an engine process matching the configured name
// exists. A failed probe is treated as "not running": the caller's next
// transport attempt settles the question.
func (m *ProcessManager) Running(ctx context.Context) bool {
	err := exec.CommandContext(ctx, "pgrep", "-f", m.config.ProcessName).Run()
	return err == nil
}

// Start launches the engine process detached from this one. The engine
// needs time to open its XML port; callers should not expect the next
// request to succeed immediately.
func (m *ProcessManager) Start(ctx context.Context) error {
	cmd := exec.Command(m.config.StartCommand[0], m.config.StartCommand[1:]...)
	if err := cmd.Start(); err != nil {
		return bridgeerrors.InternalError(
			bridgeerrors.CodeUnexpectedError, "starting engine process", err)
	}

	// Detach: the engine outlives this process
	go func() { _ = cmd.Wait() }()

	m.log.WithFields(logger.Fields{
		"command": m.config.StartCommand[0],
		"pid":     cmd.Process.Pid,
	}).Info("engine process started")
	return nil
}

// Restart stops any running engine process and launches a fresh one
func (m *ProcessManager) Restart(ctx context.Context) error {
	if len(m.config.StopCommand) > 0 && m.Running(ctx) {
		if err := exec.CommandContext(ctx, m.config.StopCommand[0], m.config.StopCommand[1:]...).Run(); err != nil {
			m.log.WithError(err).Warn("could not stop engine process")
		}
		select {
		case <-time.After(m.config.StartupGrace):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.Start(ctx)
}
