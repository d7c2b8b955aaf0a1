package admin

import (
	"strings"
	"time"
)

const (
	LocalTimeMarker = " (local time)"
	LocalTimeLayout = "02.01.2006, 15:04:05"
)

// naive timestamps carry no offset and are taken to be UTC
var utcLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// FormatLocal renders a server-supplied UTC timestamp in loc and appends
// LocalTimeMarker.  Unparseable input is returned unchanged with false.
func FormatLocal(utcTimestamp string, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.Local
	}
	value := strings.TrimSpace(utcTimestamp)
	for _, layout := range utcLayouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err != nil {
			continue
		}
		return t.In(loc).Format(LocalTimeLayout) + LocalTimeMarker, true
	}
	return utcTimestamp, false
}
