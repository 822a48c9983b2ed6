package alert

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"baboard/internal/status"
)

// Notification describes a single tier-crossing alert for one operator.
type Notification struct {
	OperatorName string
	TeamNumber   int
	Tier         status.Tier
	Remaining    string
	WhistleTime  time.Time
}

func (n Notification) message() string {
	who := n.OperatorName
	if n.TeamNumber > 0 {
		who = fmt.Sprintf("BA %d %s", n.TeamNumber, n.OperatorName)
	}
	return fmt.Sprintf("%s: %s (whistle %s, remaining %s)",
		who, n.Tier.Label(), n.WhistleTime.Format("15:04:05"), n.Remaining)
}

// Notifier delivers an alert over one channel. A failing channel must not
// stop the other channels or the monitoring loop; errors are logged by the
// dispatcher and otherwise swallowed.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Name() string
}

// ConsoleNotifier prints color-coded alert lines to the operator console.
type ConsoleNotifier struct {
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (c *ConsoleNotifier) Name() string { return "console" }

func (c *ConsoleNotifier) Notify(ctx context.Context, n Notification) error {
	line := "!! " + n.message()
	var err error
	switch n.Tier {
	case status.Overdue:
		_, err = color.New(color.FgRed, color.Bold).Fprintln(c.out, line)
	case status.Whistle:
		_, err = color.New(color.FgYellow, color.Bold).Fprintln(c.out, line)
	default:
		_, err = fmt.Fprintln(c.out, line)
	}
	return err
}
