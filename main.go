package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stry/cmd"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logrus.Fatalf("Error executing command: %v", err)
	}
}
