package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kexec-go/process"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Demonstrate ke_wait_multiple in any-mode over several events",
	Long: `Creates several auto-reset events and waits on all of them at once in
any-mode, then sets one of them after a short delay and reports which index
woke the waiter.`,
	Args: cobra.NoArgs,
	RunE: runWait,
}

var (
	waitEventCount int
	waitSetIndex   int
	waitDelayMs    int
	waitTimeoutMs  int64
)

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().IntVar(&waitEventCount, "events", 3, "number of auto-reset events to wait on")
	waitCmd.Flags().IntVar(&waitSetIndex, "set-index", 1, "index of the event to set")
	waitCmd.Flags().IntVar(&waitDelayMs, "delay-ms", 100, "delay before setting the event")
	waitCmd.Flags().Int64Var(&waitTimeoutMs, "timeout-ms", -1, "wait timeout in ms, negative waits indefinitely")
}

func runWait(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	pid, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("process_spawn: %w", err)
	}

	if waitSetIndex < 0 || waitSetIndex >= waitEventCount {
		return fmt.Errorf("set-index %d out of range [0,%d)", waitSetIndex, waitEventCount)
	}

	tokens := make([]string, waitEventCount)
	for i := range tokens {
		tok, err := k.KeCreateEvent(pid.Pid, false, false)
		if err != nil {
			return fmt.Errorf("ke_create_event: %w", err)
		}
		tokens[i] = tok
	}

	type outcome struct {
		index int
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		_, idx, err := k.KeWaitMultiple(pid.Pid, int(process.Ring3), tokens, false, waitTimeoutMs)
		done <- outcome{idx, err}
	}()

	ctx := GetContext()
	timer := time.NewTimer(time.Duration(waitDelayMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		fmt.Printf("setting event at index %d after %dms\n", waitSetIndex, waitDelayMs)
		if err := k.KeSetEvent(pid.Pid, int(process.Ring3), tokens[waitSetIndex]); err != nil {
			return fmt.Errorf("ke_set_event: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case o := <-done:
		if o.err != nil {
			return fmt.Errorf("ke_wait_multiple: %w", o.err)
		}
		fmt.Printf("woken by index %d\n", o.index)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
