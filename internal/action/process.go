package action

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/envutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/vars"
)

const (
	// processTimeout is the maximum time to wait for an external cleanup
	// command.
	processTimeout = 10 * time.Minute
)

// commandLinePattern splits quoted and unquoted segments of a command line.
var commandLinePattern = regexp.MustCompile(`[^\s"]+|"([^"]*)"`)

// splitCommandLine splits a command line into executable and arguments,
// keeping quoted paths with spaces intact.
// Example: `"C:\Program Files\App\clean.exe" /S` → ["C:\Program Files\App\clean.exe", "/S"]
func splitCommandLine(line string) (string, []string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	var parts []string
	for _, match := range commandLinePattern.FindAllStringSubmatch(line, -1) {
		if match[1] != "" {
			parts = append(parts, match[1])
		} else {
			parts = append(parts, strings.Trim(match[0], `"`))
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

// runProcess runs exe directly (never through a shell). When wait is false
// the process is started and left running.
func runProcess(exe string, args []string, wait bool) error {
	if !wait {
		return exec.Command(exe, args...).Start()
	}
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, exe, args...).CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s", exe, processTimeout)
		}
		return exitError(exe, err, output)
	}
	return nil
}

// exitError wraps an exec error with the command's trimmed output.
func exitError(exe string, err error, output []byte) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%s: %w", exe, err)
	}
	out := strings.TrimSpace(string(output))
	if len(out) > 200 {
		// Truncate at a valid UTF-8 boundary.
		out = out[:200]
		for len(out) > 0 && !utf8.ValidString(out) {
			out = out[:len(out)-1]
		}
		out += "..."
	}
	if out != "" {
		return fmt.Errorf("%s failed (exit code %d): %s", exe, exitErr.ExitCode(), out)
	}
	return fmt.Errorf("%s failed (exit code %d)", exe, exitErr.ExitCode())
}

func processFactory(attrs Attributes, _ *vars.Table) (Provider, error) {
	line, err := attrs.Require("cmd")
	if err != nil {
		return nil, err
	}
	wait := true
	switch strings.ToLower(attrs.Get("wait")) {
	case "", "true", "1", "yes":
	case "false", "0", "no":
		wait = false
	default:
		return nil, fmt.Errorf("%w: wait=%q", ErrInvalidAttributes, attrs.Get("wait"))
	}
	return Func(func(yield func(command.Command, error) bool) {
		exe, args := splitCommandLine(envutil.ExpandPath(line))
		if exe == "" {
			yield(nil, fmt.Errorf("%w: empty command line", ErrInvalidAttributes))
			return
		}
		yield(command.Function{
			Label: "Run " + exe,
			Effect: func(string, func(float64) bool) (int64, error) {
				return 0, runProcess(exe, args, wait)
			},
		}, nil)
	}), nil
}

// aptFactory runs one apt-get maintenance verb, only where apt-get exists.
func aptFactory(verb string) Factory {
	return func(Attributes, *vars.Table) (Provider, error) {
		return Func(func(yield func(command.Command, error) bool) {
			exe, err := exec.LookPath("apt-get")
			if err != nil {
				return
			}
			yield(command.Function{
				Label: "apt-get " + verb,
				Effect: func(string, func(float64) bool) (int64, error) {
					return 0, runProcess(exe, []string{verb}, true)
				},
			}, nil)
		}), nil
	}
}
