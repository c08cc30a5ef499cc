package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kexec-go/ipc"
	"kexec-go/process"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Demonstrate a user-supplied signal handler",
	Long:  `Spawns a process, installs a handler for a signal, and sends it.`,
	Args:  cobra.NoArgs,
	RunE:  runSignal,
}

var signalNumber int

func init() {
	rootCmd.AddCommand(signalCmd)
	signalCmd.Flags().IntVar(&signalNumber, "signal", int(ipc.SIGHUP), "signal number to install a handler for and send")
}

func runSignal(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	pid, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("process_spawn: %w", err)
	}

	sig := ipc.Signum(signalNumber)
	fired := false
	if err := k.SignalSetHandler(pid.Pid, sig, func(ipc.Signum) error {
		fired = true
		fmt.Printf("handler invoked for signal %d on pid=%d\n", sig, pid.Pid)
		return nil
	}); err != nil {
		return fmt.Errorf("signal_set_handler: %w", err)
	}

	if err := k.SignalSend(pid.Pid, sig); err != nil {
		return fmt.Errorf("signal_send: %w", err)
	}

	if !fired {
		return fmt.Errorf("handler did not run for signal %d; it may be uncatchable", sig)
	}
	return nil
}
