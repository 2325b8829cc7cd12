// Command midiecho relays everything the controller sends straight back to it
// and logs the receive-to-send latency of each message.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leandrodaf/midirelay/internal/app"
	"github.com/leandrodaf/midirelay/internal/logger"
	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/leandrodaf/midirelay/sdk/relay"
)

// deviceName is the controller to loop back. Change it to your device's name.
const deviceName = "APC Key 25"

func main() {
	log := logger.NewZapLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Stdout, "Test: Receive from Virtual Device -> Send to Virtual Device",
		func(t contracts.Transport, options contracts.ClientOptions) (*relay.Session, error) {
			return relay.StartEcho(t, deviceName, options)
		},
		contracts.WithLogger(log),
	)
	stop()

	if err != nil {
		log.Error("MIDI echo failed", log.Field().Error("error", err))
		os.Exit(1)
	}
}
