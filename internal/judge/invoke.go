package judge

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Evaluate spawns the configured judge command with the built prompt as its
// final argument, waits up to cfg.Timeout, and parses its stdout. Any
// failure — empty command, spawn error, timeout, nonzero exit, unparseable
// output — yields Ask (spec §4.7: "Any error ... yields ask").
//
// exec.CommandContext kills and reaps the child automatically once ctx is
// done, satisfying the resource-discipline requirement that no orphaned
// subprocess survives a timeout.
func Evaluate(ctx context.Context, cfg Config, ec ExtractedCode, cwd string) (Decision, string) {
	if len(cfg.Command) == 0 {
		return Ask, "AI judge error: command is empty"
	}

	prompt := BuildPrompt(cfg, ec, cwd)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, cfg.Command[1:]...), prompt)
	cmd := exec.CommandContext(ctx, cfg.Command[0], args...)

	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return Ask, fmt.Sprintf("AI judge error: timed out after %s", timeout)
	}
	if err != nil {
		return Ask, fmt.Sprintf("AI judge error: %v", err)
	}

	return ParseResponse(string(out))
}
