package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// progressListener draws one bar tick per finished pipeline step.
type progressListener struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

func newProgressListener(w io.Writer, total int) *progressListener {
	p := &progressListener{writer: w}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][bold]Building dashboard...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

func (p *progressListener) BeforeStep(name string, _, _ int) {
	p.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", name))
}

func (p *progressListener) AfterStep(_ string, _, _ int, err error) {
	if err != nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
