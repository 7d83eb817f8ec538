package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/qq1060656096/dropguard/internal/cmd"
	"github.com/qq1060656096/dropguard/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		if log, lerr := logging.New("error", os.Stderr); lerr == nil {
			log.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
