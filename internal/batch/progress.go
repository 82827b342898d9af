package batch

import (
	"io"

	"github.com/gosuri/uiprogress"
)

// Progress renders a terminal progress bar over the bytes read from a
// batch input.
type Progress struct {
	p     *uiprogress.Progress
	bar   *uiprogress.Bar
	total int
	read  int
}

// NewProgress starts a bar sized to total bytes, rendered to out.
func NewProgress(total int64, out io.Writer) *Progress {
	p := uiprogress.New()
	p.SetOut(out)
	bar := p.AddBar(int(total)).AppendCompleted().PrependElapsed()
	p.Start()
	return &Progress{p: p, bar: bar, total: int(total)}
}

// Reader wraps r so that every read advances the bar.
func (pr *Progress) Reader(r io.Reader) io.Reader {
	return &countingReader{r: r, pr: pr}
}

// BytesRead returns the number of bytes counted so far.
func (pr *Progress) BytesRead() int {
	return pr.read
}

// Stop renders the final state and stops the refresh loop.
func (pr *Progress) Stop() {
	pr.p.Stop()
}

func (pr *Progress) advance(n int) {
	pr.read += n
	if pr.read > pr.total {
		return
	}
	_ = pr.bar.Set(pr.read)
}

type countingReader struct {
	r  io.Reader
	pr *Progress
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.pr.advance(n)
	}
	return n, err
}
