package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar is a progress bar whose maximum grows as work is discovered. All
// methods are no-ops on a nil *Bar, so callers don't need to check whether
// progress reporting is enabled.
type Bar struct {
	max int
	bar *progressbar.ProgressBar
}

func New(w io.Writer, description string) *Bar {
	return &Bar{
		bar: progressbar.NewOptions(0,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// AddMax raises the number of steps by n.
func (b *Bar) AddMax(n int) {
	if b == nil {
		return
	}
	b.max += n
	b.bar.ChangeMax(b.max)
}

// Add marks n steps as done.
func (b *Bar) Add(n int) {
	if b == nil {
		return
	}
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	if b == nil {
		return
	}
	_ = b.bar.Finish()
}
