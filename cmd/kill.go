package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kexec-go/ipc"
	"kexec-go/process"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Demonstrate process_kill and parent SIGCHLD notification",
	Long: `Spawns a parent and a child, sends SIGTERM to the child, and shows
the parent's pending SIGCHLD being delivered at its next yield.`,
	Args: cobra.NoArgs,
	RunE: runKill,
}

var killSignal int

func init() {
	rootCmd.AddCommand(killCmd)
	killCmd.Flags().IntVar(&killSignal, "signal", int(ipc.SIGTERM), "signal number to send the child")
}

func runKill(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	parent, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("spawn parent: %w", err)
	}
	child, err := k.ProcessSpawn(parent.Pid, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("spawn child: %w", err)
	}
	fmt.Printf("spawned parent pid=%d, child pid=%d\n", parent.Pid, child.Pid)

	if err := k.SignalSend(child.Pid, ipc.Signum(killSignal)); err != nil {
		return fmt.Errorf("signal_send: %w", err)
	}
	fmt.Printf("sent signal %d to pid=%d\n", killSignal, child.Pid)

	pending, err := k.SignalPending(parent.Pid)
	if err != nil {
		return fmt.Errorf("signal_pending: %w", err)
	}
	fmt.Printf("parent pid=%d has pending SIGCHLD before yield: %v\n", parent.Pid, pending)

	// Signal delivery happens at well-defined points: syscall return or
	// an explicit yield. The parent's next yield is where its SIGCHLD
	// actually drains.
	if err := k.ProcessYield(parent.Pid); err != nil {
		return fmt.Errorf("process_yield: %w", err)
	}

	pending, err = k.SignalPending(parent.Pid)
	if err != nil {
		return fmt.Errorf("signal_pending: %w", err)
	}
	fmt.Printf("parent pid=%d has pending SIGCHLD after yield: %v\n", parent.Pid, pending)
	return nil
}
