// Package console is the headless presenter used by `audiotexter listen`.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Presenter prints utterances and statuses as lines on w.
type Presenter struct {
	mu         sync.Mutex
	w          io.Writer
	timestamps bool
	now        func() time.Time
}

// New returns a presenter writing to w. With timestamps, each utterance is
// prefixed by the local time.
func New(w io.Writer, timestamps bool) *Presenter {
	return &Presenter{w: w, timestamps: timestamps, now: time.Now}
}

func (p *Presenter) OnUtterance(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timestamps {
		fmt.Fprintf(p.w, "[%s] %s\n", p.now().Format("15:04:05"), text)
		return
	}
	fmt.Fprintln(p.w, text)
}

func (p *Presenter) OnStatus(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "* %s\n", message)
}
