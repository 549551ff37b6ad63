package progress

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Bar is a terminal progress bar fed by per-file progress callbacks. The
// underlying bar is created on the first update, once the total is known.
type Bar struct {
	out  io.Writer
	once sync.Once
	p    *mpb.Progress
	bar  *mpb.Bar
}

// NewBar creates a bar that renders to out. Rendering does not depend on out
// being a terminal, so redirected output still gets the bar.
func NewBar(out io.Writer) *Bar {
	return &Bar{out: out}
}

// Update moves the bar to current out of total. Safe for concurrent use.
func (b *Bar) Update(current, total int, filename, status string) {
	b.once.Do(func() {
		b.p = mpb.New(
			mpb.WithOutput(b.out),
			mpb.WithWidth(50),
			mpb.WithAutoRefresh(),
		)
		b.bar = b.p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name("anonymizing"),
				decor.CountersNoUnit(" %d/%d", decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WCSyncSpace),
			),
		)
	})
	b.bar.SetCurrent(int64(current))
}

// Finish stops rendering. A bar that never reached its total, because the
// run was aborted, is left where it stopped.
func (b *Bar) Finish() {
	if b.p == nil {
		return
	}
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
