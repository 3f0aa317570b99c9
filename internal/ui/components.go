package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/olivier-w/audioverlay/internal/rotation"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/util"
)

func renderProgressBar(elapsed, total float64, width int) string {
	width = max(width, 4)
	var ratio float64
	if total > 0 {
		ratio = stage.Clamp01(elapsed / total)
	}
	filled := int(ratio * float64(width))
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}

// renderTransport is "▶ 1:02 ━━──── 3:45  vol 80%".
func renderTransport(paused bool, elapsed, total time.Duration, vol float64, barWidth int) string {
	icon := "▶"
	if paused {
		icon = "❚❚"
	}
	return fmt.Sprintf("%s %s %s %s  %s",
		icon,
		util.FormatDuration(elapsed),
		renderProgressBar(elapsed.Seconds(), total.Seconds(), barWidth),
		util.FormatDuration(total),
		renderVolumePercent(vol))
}

// renderRotation is "[cycle] auto 12s" while rotation runs, "manual" otherwise.
func renderRotation(s rotation.Status) string {
	if !s.Enabled {
		return "manual " + s.Order.Icon()
	}
	return fmt.Sprintf("%s auto %s", s.Order.Icon(), util.FormatCountdown(s.Remaining))
}
