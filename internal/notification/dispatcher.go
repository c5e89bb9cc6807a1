package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Dispatcher renders notifications and hands them to a Sender. Dispatch
// never blocks the caller and never reports failures back to it.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A non-positive timeout disables the
// per-send deadline.
func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
	}
}

// Notify composes n and sends it, returning the outcome of the attempt.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) error {
	msg, err := Compose(n)
	if err != nil {
		return err
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s notification to %s: %w", n.Kind, msg.To, err)
	}
	return nil
}

// Dispatch sends n in the background and logs a failed attempt.
func (d *Dispatcher) Dispatch(n Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx := context.Background()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		if err := d.Notify(ctx, n); err != nil {
			log.Printf("notification dropped: %v", err)
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Discard drops every notification. It is used when another process owns
// notification delivery.
type Discard struct{}

func (Discard) Dispatch(Notification) {}
