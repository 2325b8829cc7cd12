// Command midivirtual publishes a virtual MIDI destination, relays the
// controller into it and logs both the send and the arrival of every message.
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

const (
	deviceName  = "APC Key 25" // Change this to your device's name
	virtualName = "Test Virtual Destination"
)

func main() {
	log := logger.NewZapLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Stdout, "Creating virtual MIDI destination...",
		func(t contracts.Transport, options contracts.ClientOptions) (*relay.Session, error) {
			return relay.StartVirtual(t, deviceName, virtualName, options)
		},
		contracts.WithLogger(log),
	)
	stop()

	if err != nil {
		log.Error("MIDI virtual relay failed", log.Field().Error("error", err))
		os.Exit(1)
	}
}
