package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kexec-go/process"
)

var mqCmd = &cobra.Command{
	Use:   "mq",
	Short: "Demonstrate priority-ordered message queue delivery",
	Long:  `Sends three messages of different priorities and receives them back in delivery order.`,
	Args:  cobra.NoArgs,
	RunE:  runMq,
}

var (
	mqMaxMsgs int
	mqMaxSize int
)

func init() {
	rootCmd.AddCommand(mqCmd)

	mqCmd.Flags().IntVar(&mqMaxMsgs, "max-msgs", 8, "maximum queued messages")
	mqCmd.Flags().IntVar(&mqMaxSize, "max-size", 64, "maximum payload size in bytes")
}

func runMq(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	pid, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("process_spawn: %w", err)
	}

	tok, err := k.KeCreateMqueue(pid.Pid, mqMaxMsgs, mqMaxSize)
	if err != nil {
		return fmt.Errorf("ke_create_mqueue: %w", err)
	}

	sends := []struct {
		payload  string
		priority uint32
	}{
		{"low", 1},
		{"high", 10},
		{"mid", 5},
	}
	for _, s := range sends {
		if err := k.KeMqSend(pid.Pid, int(process.Ring3), tok, []byte(s.payload), s.priority, -1); err != nil {
			return fmt.Errorf("mq_send(%s): %w", s.payload, err)
		}
		fmt.Printf("sent %q at priority %d\n", s.payload, s.priority)
	}

	for i := 0; i < len(sends); i++ {
		payload, priority, err := k.KeMqReceive(pid.Pid, int(process.Ring3), tok, -1)
		if err != nil {
			return fmt.Errorf("mq_receive: %w", err)
		}
		fmt.Printf("received %q at priority %d\n", payload, priority)
	}
	return nil
}
