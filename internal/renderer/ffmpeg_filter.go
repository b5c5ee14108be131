package renderer

import (
	"fmt"
	"strings"

	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/system"
)

// OutputFilter builds the -vf chain for the preview stream: fade in from
// black, fade out at the end and an optional debug timestamp.
func OutputFilter(p config.SegmentParams) string {
	var filters []string

	fade := p.FadeDuration
	if fade > p.Duration/4 {
		fade = p.Duration / 4
	}
	if fade > 0 {
		filters = append(filters,
			fmt.Sprintf("fade=t=in:st=0:d=%.3f", fade),
			fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", p.Duration-fade, fade),
		)
	}

	if p.Debug && system.CheckFilterSupport("drawtext") {
		filters = append(filters, "drawtext=text='%{pts\\:hms}':x=w-tw-10:y=h-th-10:fontsize=18:fontcolor=yellow:box=1:boxcolor=black@0.5")
	}

	filters = append(filters, fmt.Sprintf("scale=%d:%d", even(p.Width), even(p.Height)))
	return strings.Join(filters, ",")
}

// yuv420p needs even dimensions
func even(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}
