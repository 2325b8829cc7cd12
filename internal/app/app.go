// Package app holds the lifecycle shared by the relay programs.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/leandrodaf/midirelay/sdk/midi"
	"github.com/leandrodaf/midirelay/sdk/ports"
	"github.com/leandrodaf/midirelay/sdk/relay"
	"go.uber.org/multierr"
)

// Starter opens a relay session on a ready transport.
type Starter func(t contracts.Transport, options contracts.ClientOptions) (*relay.Session, error)

// Run creates the platform transport and serves until ctx is done.
func Run(ctx context.Context, out io.Writer, banner string, start Starter, opts ...contracts.Option) (err error) {
	t, options, err := midi.NewTransport(opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, t.Close())
	}()

	return Serve(ctx, t, options, out, banner, start)
}

// Serve prints the port listing, starts the session and blocks until ctx is
// done. The session is closed before returning.
func Serve(ctx context.Context, t contracts.Transport, options contracts.ClientOptions, out io.Writer, banner string, start Starter) (err error) {
	fmt.Fprintln(out, banner)

	if err := ports.ListPorts(t, out); err != nil {
		return err
	}

	session, err := start(t, options)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, session.Close())
	}()

	fmt.Fprintln(out, "Listening for MIDI input... Press Ctrl+C to exit.")
	<-ctx.Done()
	return nil
}
