package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kexec-go/process"
)

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Spawn a process and print its descriptor",
	Long:  `Boots a kernel, spawns one process under it, and prints the resulting descriptor.`,
	Args:  cobra.NoArgs,
	RunE:  runSpawn,
}

var (
	spawnRing     int
	spawnPriority int
	spawnArgs     []string
)

func init() {
	rootCmd.AddCommand(spawnCmd)

	spawnCmd.Flags().IntVar(&spawnRing, "ring", int(process.Ring3), "privilege ring for the spawned process (0-3)")
	spawnCmd.Flags().IntVar(&spawnPriority, "priority", 0, "scheduling priority, lower runs first among ready peers")
	spawnCmd.Flags().StringSliceVar(&spawnArgs, "arg", nil, "argument to pass to the spawned process, repeatable")
}

func runSpawn(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	d, err := k.ProcessSpawn(0, process.Ring(spawnRing), spawnPriority, spawnArgs, nil)
	if err != nil {
		return fmt.Errorf("process_spawn: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tPARENT\tRING\tSTATE\tPRIORITY\tSYNAPSE")
	fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\n", d.Pid, d.ParentPid, ringName(d.Ring), d.State, d.Priority, d.SynapseToken)
	return w.Flush()
}

func ringName(r process.Ring) string {
	switch r {
	case process.Ring0:
		return "ring0"
	case process.Ring1:
		return "ring1"
	case process.Ring2:
		return "ring2"
	case process.Ring3:
		return "ring3"
	default:
		return "unknown"
	}
}
