// Package climode implements the CLI surface spec §6.2 describes: a bare
// invocation runs hook mode, and check/rules/files/init are subcommands,
// via cobra, grounded on the teacher's internal/cli/root.go persistent-flag
// idiom and original_source/src/cli.rs's flag set.
package climode

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gzhole/longline/internal/auditlog"
	"github.com/gzhole/longline/internal/hookio"
	"github.com/gzhole/longline/internal/judge"
	"github.com/gzhole/longline/internal/policyconf"
)

var (
	configPath     string
	dirPath        string
	safetyLevel    string
	trustLevel     string
	askOnDeny      bool
	askAI          bool
	askAILenient   bool
)

var rootCmd = &cobra.Command{
	Use:     "longline",
	Short:   "A PreToolUse safety hook for AI coding agents",
	Long: `longline evaluates shell commands an AI coding agent is about to run,
against a layered rule and allowlist configuration, and answers allow, ask,
or deny.

Run with no subcommand to operate as a PreToolUse hook (reads one JSON
request from stdin, writes one JSON response to stdout).`,
	RunE: runHookMode,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an explicit rules/manifest YAML file")
	rootCmd.PersistentFlags().StringVar(&dirPath, "dir", "", "directory evaluation starts from (default: hook cwd or $PWD)")
	rootCmd.PersistentFlags().StringVar(&safetyLevel, "safety-level", "", "override active safety level: critical, high, strict")
	rootCmd.PersistentFlags().StringVar(&trustLevel, "trust-level", "", "override active trust level: minimal, standard, full")
	rootCmd.PersistentFlags().BoolVar(&askOnDeny, "ask-on-deny", false, "downgrade deny decisions to ask")
	rootCmd.PersistentFlags().BoolVar(&askAI, "ask-ai", false, "consult the AI judge (strict mode) before asking the user")
	rootCmd.PersistentFlags().BoolVar(&askAILenient, "ask-ai-lenient", false, "consult the AI judge in lenient mode; implies --ask-ai")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if ce, ok := err.(configError); ok {
			return ce.code
		}
		fmt.Fprintf(os.Stderr, "longline: %v\n", err)
		return 1
	}
	return 0
}

// configError lets a RunE report an exact exit code (spec §6.4 reserves 2
// for configuration failures) without cobra's default "print err, exit 1"
// handling losing that distinction.
type configError struct {
	code int
	err  error
}

func (e configError) Error() string { return e.err.Error() }

func loadOptions() (policyconf.LoadOptions, error) {
	opts := policyconf.LoadOptions{ConfigPath: configPath, Dir: dirPath}
	if dirPath == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Dir = wd
		}
	}
	if safetyLevel != "" {
		lvl, err := policyconf.ParseSafetyLevel(safetyLevel)
		if err != nil {
			return opts, err
		}
		opts.RuntimeSafetyLevel = &lvl
	}
	if trustLevel != "" {
		lvl, err := policyconf.ParseTrustLevel(trustLevel)
		if err != nil {
			return opts, err
		}
		opts.RuntimeTrustLevel = &lvl
	}
	if askOnDeny {
		v := true
		opts.RuntimeAskOnDeny = &v
	}
	return opts, nil
}

func loadConfig() (*policyconf.Config, error) {
	opts, err := loadOptions()
	if err != nil {
		return nil, configError{code: hookio.ExitConfigError, err: err}
	}
	cfg, err := policyconf.Load(opts)
	if err != nil {
		return nil, configError{code: hookio.ExitConfigError, err: err}
	}
	return cfg, nil
}

func runHookMode(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return configError{code: hookio.ExitConfigError, err: err}
	}
	if dirPath == "" {
		// Let hookio.Run fall back to the request's cwd, then $PWD.
		opts.Dir = ""
	}

	var logger *auditlog.Logger
	if path := auditlog.DefaultPath(); path != "" {
		if l, err := auditlog.Open(path); err == nil {
			logger = l
			defer logger.Close()
		} else {
			fmt.Fprintf(os.Stderr, "longline: warning: audit log unavailable: %v\n", err)
		}
	}

	jc := judge.DefaultConfig()
	jc.Lenient = askAILenient

	hookOpts := hookio.Options{
		LoadOpts:     opts,
		AskAI:        askAI || askAILenient,
		AskAILenient: askAILenient,
		JudgeConfig:  jc,
		AuditLog:     logger,
	}

	code := hookio.Run(cmd.Context(), os.Stdin, os.Stdout, os.Stderr, hookOpts)
	if code == hookio.ExitConfigError {
		return configError{code: code, err: fmt.Errorf("configuration error")}
	}
	return nil
}
