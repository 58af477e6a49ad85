package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qualitylink/qldash/internal/events"
	"github.com/qualitylink/qldash/internal/notify"
)

// toastPrinter renders toast events as lines on a writer. On a terminal a
// pending toast is redrawn in place; elsewhere only changes of text are printed.
type toastPrinter struct {
	out io.Writer
	tty bool

	mu   sync.Mutex
	last map[string]string
}

func newToastPrinter(out io.Writer) *toastPrinter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &toastPrinter{out: out, tty: tty, last: make(map[string]string)}
}

func (p *toastPrinter) handle(_ context.Context, e events.Event) error {
	t, ok := e.Payload.(notify.Toast)
	if !ok {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if e.Type == events.EventToastHidden {
		delete(p.last, t.ID)
		return nil
	}

	line := formatToast(t, p.tty)
	if p.last[t.ID] == line {
		return nil
	}
	p.last[t.ID] = line

	if p.tty {
		// redraw the pending line in place, finish it once the toast settles
		fmt.Fprintf(p.out, "\r\033[K%s", line)
		if !t.Pending() {
			fmt.Fprintln(p.out)
		}
		return nil
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

// formatToast renders one toast. Simulated progress is shown as activity,
// never as a percentage.
func formatToast(t notify.Toast, withProgress bool) string {
	label := string(t.Type)
	if t.Type == notify.TypeLoading && t.IsComplete {
		label = "done"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", label, t.Title)
	if t.Message != "" {
		b.WriteString(": ")
		b.WriteString(t.Message)
	}
	if withProgress && t.Pending() {
		if t.SimulatedProgress {
			b.WriteString(" " + strings.Repeat(".", 1+int(t.Progress)/30))
		} else if t.ShowProgress {
			fmt.Fprintf(&b, " (%.0f%%)", t.Progress)
		}
	}
	for _, c := range t.Changes {
		fmt.Fprintf(&b, "\n  %s: %g -> %g", c.Name, c.OldValue, c.NewValue)
	}
	return b.String()
}

// toastSession is a toast registry whose changes are printed to stderr
type toastSession struct {
	Toasts *notify.Manager
	bus    *events.Bus
	cancel context.CancelFunc
}

func startToasts(cmd *cobra.Command) *toastSession {
	ctx, cancel := context.WithCancel(context.Background())
	bus := events.NewBus()
	bus.SubscribeAll(newToastPrinter(cmd.ErrOrStderr()).handle)
	bus.Start(ctx)

	opts := cfg.NotifyOptions()
	opts.Bus = bus
	return &toastSession{
		Toasts: notify.NewManager(opts),
		bus:    bus,
		cancel: cancel,
	}
}

// Close prints what is still queued and releases the registry
func (s *toastSession) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.bus.Flush(ctx)
	s.Toasts.Close()
	s.bus.Close()
	s.cancel()
}
