package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kexec-go/process"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Demonstrate a waitable timer firing",
	Long:  `Creates a timer, arms it with a delay, and waits on it while the scheduler ticks.`,
	Args:  cobra.NoArgs,
	RunE:  runTimer,
}

var timerDelayMs int64

func init() {
	rootCmd.AddCommand(timerCmd)
	timerCmd.Flags().Int64Var(&timerDelayMs, "delay-ms", 100, "delay before the timer fires")
}

func runTimer(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	pid, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("process_spawn: %w", err)
	}

	tok, err := k.KeCreateTimer(pid.Pid)
	if err != nil {
		return fmt.Errorf("ke_create_timer: %w", err)
	}
	if err := k.KeSetTimer(pid.Pid, int(process.Ring3), tok, timerDelayMs, 0, nil, nil, false); err != nil {
		return fmt.Errorf("ke_set_timer: %w", err)
	}
	fmt.Printf("armed timer for %dms\n", timerDelayMs)

	type outcome struct {
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		_, err := k.KeWaitSingle(pid.Pid, int(process.Ring3), tok, -1)
		done <- outcome{err}
	}()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	ctx := GetContext()
	for {
		select {
		case o := <-done:
			if o.err != nil {
				return fmt.Errorf("ke_wait_single: %w", o.err)
			}
			fmt.Println("timer fired, waiter woke")
			return nil
		case <-ticker.C:
			k.Tick()
		case <-ctx.Done():
			return fmt.Errorf("interrupted before timer fired")
		}
	}
}
