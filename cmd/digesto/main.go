// Command digesto segments a Latin Digest corpus into citation-labeled JSON
// fragments and optionally translates them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp()
	err := a.rootCmd().ExecuteContext(ctx)
	if err != nil {
		if a.logger != nil {
			a.logger.Error("Command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, "digesto:", err)
		}
	}
	a.close()
	stop()

	if err != nil {
		os.Exit(1)
	}
}
