// kctl is the operator CLI for the kernel executive.
package main

import (
	"fmt"
	"os"

	"kexec-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "kctl: %v\n", err)
		os.Exit(1)
	}
}
