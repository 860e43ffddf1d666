// Command gatewayshield lists, filters, exports and moderates the records
// of the GatewayShield admin API from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "gatewayshield: %s\n", api.UserMessage(err))
		os.Exit(1)
	}
}
