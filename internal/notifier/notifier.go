package notifier

import (
	"context"
	"log"
)

// Notifier delivers placement and settlement notices. The engine never
// depends on delivery succeeding; a failed send is logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LogNotifier writes notices to the process log. Used when Telegram is not
// configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Notify(_ context.Context, text string) error {
	log.Printf("[INFO] notice: %s", text)
	return nil
}
