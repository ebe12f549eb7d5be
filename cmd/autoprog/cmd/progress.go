package cmd

import (
	"io"

	"github.com/cheggaaa/pb"

	"github.com/moffa90/go-autoprog/programmer"
)

// progressBar draws flash progress. A bar is started at the first page
// report of a session and finished when the session leaves the flashing phase.
type progressBar struct {
	out     io.Writer
	enabled bool
	bar     *pb.ProgressBar
}

func (p *progressBar) update(pr programmer.Progress) {
	if !p.enabled {
		return
	}

	switch pr.Phase {
	case programmer.PhaseFlashing:
		if p.bar == nil && pr.TotalPages > 0 {
			p.bar = pb.New(pr.TotalPages)
			p.bar.Output = p.out
			p.bar.ShowSpeed = true
			p.bar.Prefix("flash ")
			p.bar.Start()
		}
		if p.bar != nil {
			p.bar.Set(pr.Page)
		}
	default:
		if p.bar != nil {
			p.bar.Finish()
			p.bar = nil
		}
	}
}
