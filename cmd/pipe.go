package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kexec-go/process"
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Demonstrate an anonymous pipe blocking on capacity",
	Long: `Creates a small anonymous pipe, fills it to capacity, then writes two
more bytes; the extra write blocks until a read frees room.`,
	Args: cobra.NoArgs,
	RunE: runPipe,
}

var pipeSize int

func init() {
	rootCmd.AddCommand(pipeCmd)
	pipeCmd.Flags().IntVar(&pipeSize, "size", 8, "pipe buffer capacity in bytes")
}

func runPipe(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	producer, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("spawn producer: %w", err)
	}
	consumer, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("spawn consumer: %w", err)
	}

	readTok, writeTok, err := k.KeCreatePipe(producer.Pid, pipeSize)
	if err != nil {
		return fmt.Errorf("ke_create_pipe: %w", err)
	}

	payload := make([]byte, pipeSize)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	n, err := k.KePipeWrite(producer.Pid, int(process.Ring3), writeTok, payload)
	if err != nil {
		return fmt.Errorf("ke_pipe_write: %w", err)
	}
	fmt.Printf("filled pipe exactly: wrote %d bytes\n", n)

	overflow := []byte("XY")
	writeDone := make(chan struct{})
	var overflowN int
	var writeErr error
	go func() {
		overflowN, writeErr = k.KePipeWrite(producer.Pid, int(process.Ring3), writeTok, overflow)
		close(writeDone)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-writeDone:
		return fmt.Errorf("overflow write returned before any read freed capacity")
	default:
		fmt.Println("overflow write is blocked, as expected")
	}

	first, err := k.KePipeRead(consumer.Pid, int(process.Ring3), readTok, pipeSize)
	if err != nil {
		return fmt.Errorf("ke_pipe_read: %w", err)
	}
	fmt.Printf("read %d bytes, freeing capacity: %q\n", len(first), first)

	<-writeDone
	if writeErr != nil {
		return fmt.Errorf("overflow write: %w", writeErr)
	}
	fmt.Printf("overflow write unblocked, wrote %d bytes\n", overflowN)

	rest, err := k.KePipeRead(consumer.Pid, int(process.Ring3), readTok, len(overflow))
	if err != nil {
		return fmt.Errorf("ke_pipe_read: %w", err)
	}
	fmt.Printf("read remaining %q\n", rest)
	return nil
}
