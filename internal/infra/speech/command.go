package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// CommandEngine speaks through a local text-to-speech binary such as
// espeak-ng or say. The text is passed as the final argument.
type CommandEngine struct {
	command string
	args    []string
	logger  *slog.Logger
}

func NewCommandEngine(command string, args []string, logger *slog.Logger) *CommandEngine {
	return &CommandEngine{command: command, args: args, logger: logger}
}

func (c *CommandEngine) Name() string {
	return c.command
}

// Check reports whether the configured binary can be found.
func (c *CommandEngine) Check() error {
	if _, err := exec.LookPath(c.command); err != nil {
		return fmt.Errorf("speech command %q: %w", c.command, err)
	}
	return nil
}

func (c *CommandEngine) Speak(ctx context.Context, text string) error {
	args := append(append([]string(nil), c.args...), text)
	cmd := exec.CommandContext(ctx, c.command, args...)

	c.logger.Debug("speaking", "engine", c.command, "text", text)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running %s: %w (output: %s)", c.command, err, out)
	}
	return nil
}
