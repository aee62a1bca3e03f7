package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// WatchInterrupt returns a context canceled on SIGINT/SIGTERM. The first
// signal requests a graceful stop of the current encode; a second one
// exits immediately.
func WatchInterrupt(ctx context.Context) context.Context {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		<-sigs
		log.Warn("interrupt received, finishing current file and stopping")
		cancel()

		<-sigs
		log.Warn("second interrupt, exiting now")
		os.Exit(130)
	}()

	return ctx
}
