// Command midiports prints the MIDI sources and destinations visible to this host.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/leandrodaf/midirelay/internal/logger"
	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/leandrodaf/midirelay/sdk/midi"
	"github.com/leandrodaf/midirelay/sdk/ports"
)

func main() {
	log := logger.NewZapLogger()

	transport, _, err := midi.NewTransport(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.WarnLevel),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		os.Exit(1)
	}

	err = run(transport, os.Stdout)
	if closeErr := transport.Close(); closeErr != nil {
		log.Warn("Failed to close MIDI client", log.Field().Error("error", closeErr))
	}
	if err != nil {
		log.Error("Failed to list MIDI ports", log.Field().Error("error", err))
		os.Exit(1)
	}
}

func run(t contracts.Transport, w io.Writer) error {
	if err := ports.ListPorts(t, w); err != nil {
		return err
	}

	sources, err := t.Sources()
	if err != nil {
		return fmt.Errorf("error listing MIDI sources: %w", err)
	}
	fmt.Fprintln(w, "Input Port Details:")
	for i, source := range sources {
		info := source.Info()
		fmt.Fprintf(w, "%d: %s manufacturer=%q entity=%q\n", i, info.Name, info.Manufacturer, info.EntityName)
	}
	return nil
}
