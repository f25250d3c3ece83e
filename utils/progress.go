package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// NewProgress returns a per-stage file counter.
func NewProgress(total int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
