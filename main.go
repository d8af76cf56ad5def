// gomoss - a client for the MOSS software similarity service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gomoss/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gomoss: %v\n", err)
		os.Exit(1)
	}
}
