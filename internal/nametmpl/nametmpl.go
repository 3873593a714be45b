// Package nametmpl fills the {date} and {time} placeholders supported in
// declared version names, so a template like "release_{date}" yields a
// distinct version per day of the run.
package nametmpl

import (
	"fmt"
	"strings"
	"time"
)

// HasPlaceholders reports whether the template contains any placeholder.
func HasPlaceholders(template string) bool {
	return strings.Contains(template, "{date}") || strings.Contains(template, "{time}")
}

// Format fills the placeholders from the given instant, normally the run's
// start time so every step in a run formats the same name. Times render in
// UTC: {date} as YYYY_MM_DD, {time} as HH_MM_SS_microseconds.
func Format(template string, at time.Time) string {
	at = at.UTC()
	out := strings.ReplaceAll(template, "{date}", at.Format("2006_01_02"))
	out = strings.ReplaceAll(out, "{time}", fmt.Sprintf("%02d_%02d_%02d_%06d",
		at.Hour(), at.Minute(), at.Second(), at.Nanosecond()/1000))
	return out
}
