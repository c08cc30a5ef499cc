// Package cmd implements the kctl CLI commands.
//
// kctl is an operator tool for the kernel executive, not a client to a
// resident daemon: spec.md names no IPC transport for the kernel
// itself, so every subcommand below constructs its own in-process
// Kernel (per §9's single-owned-struct design) and demonstrates the
// syscall it names end to end within that one process lifetime.
// dmesg/exit history is the one thing that survives between
// invocations, via the bbolt-backed persist store.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kexec-go/clock"
	"kexec-go/kconfig"
	"kexec-go/kernel"
	"kexec-go/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	SpecVer   = "kexec/1"
	BuildTime = "unknown"
)

// Global flags.
var (
	globalDB        string
	globalLog       string
	globalLogFormat string
	globalDebug     bool
	globalQuantumMs int
)

// rootCmd is the base command for kctl.
var rootCmd = &cobra.Command{
	Use:   "kctl",
	Short: "Kernel executive operator CLI",
	Long: `kctl is an operator CLI for the kernel executive.

Each subcommand boots its own in-process kernel and exercises one
corner of the syscall surface (process control, waits, IPC, signals,
diagnostics) end to end, printing what happened.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

// GetDBPath returns the diagnostic persistence file path.
func GetDBPath() string {
	if globalDB != "" {
		return globalDB
	}
	return "kctl.db"
}

// buildKernel constructs a kernel for one CLI invocation, wired to the
// persistence file and the quantum override from flags.
func buildKernel() (*kernel.Kernel, error) {
	cfg := kconfig.Default()
	if globalQuantumMs > 0 {
		cfg.Quantum = time.Duration(globalQuantumMs) * time.Millisecond
	}
	return kernel.New(cfg, clock.New(), GetDBPath())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalDB, "db", "", "diagnostic persistence file (default: kctl.db)")
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&globalQuantumMs, "quantum-ms", 0, "override the scheduler quantum in milliseconds")
}

func setupLogging() {
	var logOutput = os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logLevel,
		Format: globalLogFormat,
		Output: logOutput,
	})
	logging.SetDefault(logger)
}
