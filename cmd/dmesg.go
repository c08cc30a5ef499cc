package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kexec-go/logging"
	"kexec-go/process"
)

var dmesgCmd = &cobra.Command{
	Use:   "dmesg",
	Short: "Print kernel ring buffer messages",
	Long:  `Spawns a process, emits a few log messages at it, and dumps the ring.`,
	Args:  cobra.NoArgs,
	RunE:  runDmesg,
}

var (
	dmesgLevel string
	dmesgSince uint64
	dmesgCount int
)

func init() {
	rootCmd.AddCommand(dmesgCmd)

	dmesgCmd.Flags().StringVar(&dmesgLevel, "level", "", "filter by kernel-ring level (e.g. warn, sec, info)")
	dmesgCmd.Flags().Uint64Var(&dmesgSince, "since-seq", 0, "only print entries with sequence number >= this")
	dmesgCmd.Flags().IntVar(&dmesgCount, "count", 0, "max entries to print, 0 means unbounded")
}

func runDmesg(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	pid, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("process_spawn: %w", err)
	}

	k.KernelLog(pid.Pid, logging.LevelInfo, "demo process booted")
	k.KernelLog(pid.Pid, logging.LevelWarn, "demo warning emitted for dmesg display")
	k.KernelLog(pid.Pid, logging.LevelSec, "demo security-relevant event emitted")

	entries := k.DmesgRead(dmesgSince, dmesgCount, logging.Level(dmesgLevel))
	for _, e := range entries {
		fmt.Printf("[%9.3f] seq=%d pid=%d %s: %s\n", e.Uptime, e.Seq, e.Pid, e.Level, e.Text)
	}

	stats := k.DmesgStats()
	fmt.Printf("total=%d dropped=%d next_seq=%d\n", stats.Count, stats.Dropped, stats.NextSeq)
	return nil
}
