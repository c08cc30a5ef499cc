package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kexec-go/process"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Bridge the local terminal to a process's pipe-backed standard handles",
	Long: `Puts the controlling terminal into raw mode and relays keystrokes into a
spawned process's standard-input pipe, echoing back whatever the process
writes to its standard-output pipe, the same bridging exec does for a PTY.`,
	Args: cobra.NoArgs,
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	k, err := buildKernel()
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	defer k.Close()

	pid, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	if err != nil {
		return fmt.Errorf("process_spawn: %w", err)
	}

	stdinRead, stdinWrite, err := k.KeCreatePipe(pid.Pid, 4096)
	if err != nil {
		return fmt.Errorf("ke_create_pipe(stdin): %w", err)
	}
	stdoutRead, stdoutWrite, err := k.KeCreatePipe(pid.Pid, 4096)
	if err != nil {
		return fmt.Errorf("ke_create_pipe(stdout): %w", err)
	}
	pid.StandardHandles[-10] = stdinRead
	pid.StandardHandles[-11] = stdoutWrite

	stdinFd := int(os.Stdin.Fd())
	var oldState *term.State
	if term.IsTerminal(stdinFd) {
		oldState, err = term.MakeRaw(stdinFd)
		if err != nil {
			return fmt.Errorf("make terminal raw: %w", err)
		}
		defer term.Restore(stdinFd, oldState)
	}

	// A demo process's entire "program" here is an echo loop reading its
	// own stdin pipe and writing back to its stdout pipe.
	go func() {
		for {
			data, err := k.KePipeRead(pid.Pid, int(process.Ring3), stdinRead, 256)
			if err != nil || data == nil {
				return
			}
			if _, err := k.KePipeWrite(pid.Pid, int(process.Ring3), stdoutWrite, data); err != nil {
				return
			}
		}
	}()

	outputDone := make(chan struct{})
	go func() {
		defer close(outputDone)
		for {
			data, err := k.KePipeRead(pid.Pid, int(process.Ring3), stdoutRead, 256)
			if err != nil || data == nil {
				return
			}
			os.Stdout.Write(data)
		}
	}()

	buf := make([]byte, 256)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if _, werr := k.KePipeWrite(pid.Pid, int(process.Ring3), stdinWrite, chunk); werr != nil {
				break
			}
			// Ctrl-D (EOT) ends the session, mirroring a detached session
			// closing its controlling terminal.
			for _, b := range chunk {
				if b == 0x04 {
					_ = k.KePipeClose(pid.Pid, stdinWrite)
					<-outputDone
					return nil
				}
			}
		}
		if err == io.EOF {
			_ = k.KePipeClose(pid.Pid, stdinWrite)
			break
		}
		if err != nil {
			break
		}
	}
	<-outputDone
	return nil
}
