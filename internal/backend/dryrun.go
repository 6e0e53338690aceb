package backend

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dshills/keyloop/internal/input/mouse"
	"github.com/dshills/keyloop/internal/logging"
)

// DryRun is a backend that only reports what it would do.
type DryRun struct {
	out    io.Writer
	logger *logging.Logger

	mu    sync.Mutex
	count int
}

// NewDryRun creates a dry-run backend writing one line per action to out.
// A nil out only logs.
func NewDryRun(out io.Writer, l *logging.Logger) *DryRun {
	return &DryRun{out: out, logger: logging.Default(l).WithComponent("dryrun")}
}

// Count returns the number of actions performed.
func (d *DryRun) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *DryRun) emit(ctx context.Context, format string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := fmt.Sprintf(format, args...)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	d.logger.Debug("%s", line)
	if d.out != nil {
		if _, err := fmt.Fprintln(d.out, line); err != nil {
			return err
		}
	}
	return nil
}

func (d *DryRun) MoveTo(ctx context.Context, x, y int) error {
	return d.emit(ctx, "move %s", mouse.Position{X: x, Y: y})
}

func (d *DryRun) MouseDown(ctx context.Context, x, y int, b mouse.Button) error {
	return d.emit(ctx, "press %s %s", b, mouse.Position{X: x, Y: y})
}

func (d *DryRun) MouseUp(ctx context.Context, x, y int, b mouse.Button) error {
	return d.emit(ctx, "release %s %s", b, mouse.Position{X: x, Y: y})
}

func (d *DryRun) KeyDown(ctx context.Context, name string) error {
	return d.emit(ctx, "keydown %q", name)
}

func (d *DryRun) KeyUp(ctx context.Context, name string) error {
	return d.emit(ctx, "keyup %q", name)
}
