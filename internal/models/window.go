/**
 * @description
 * The fixed lookback window set shared by the delta engine, classifier,
 * alerter, and read API. Adding a window means adding a column to the deltas
 * table; the set is fixed at build time.
 */

package models

import "time"

// Window is a lookback duration identifier (e.g. "1m", "6h").
type Window string

const (
	Window1m  Window = "1m"
	Window5m  Window = "5m"
	Window10m Window = "10m"
	Window30m Window = "30m"
	Window1h  Window = "1h"
	Window6h  Window = "6h"
	Window12h Window = "12h"
	Window24h Window = "24h"
)

// Windows is the canonical ordered window set W.
var Windows = []Window{
	Window1m, Window5m, Window10m, Window30m,
	Window1h, Window6h, Window12h, Window24h,
}

var windowDurations = map[Window]time.Duration{
	Window1m:  1 * time.Minute,
	Window5m:  5 * time.Minute,
	Window10m: 10 * time.Minute,
	Window30m: 30 * time.Minute,
	Window1h:  1 * time.Hour,
	Window6h:  6 * time.Hour,
	Window12h: 12 * time.Hour,
	Window24h: 24 * time.Hour,
}

var windowColumns = map[Window]string{
	Window1m:  "delta_1m",
	Window5m:  "delta_5m",
	Window10m: "delta_10m",
	Window30m: "delta_30m",
	Window1h:  "delta_1h",
	Window6h:  "delta_6h",
	Window12h: "delta_12h",
	Window24h: "delta_24h",
}

// Duration returns the lookback duration of the window.
func (w Window) Duration() time.Duration {
	return windowDurations[w]
}

// Column returns the deltas table column holding this window's value.
// Only values from Windows map to a column; anything else returns "".
// Callers interpolating into SQL must treat "" as invalid input.
func (w Window) Column() string {
	return windowColumns[w]
}

// ValidWindow reports whether s names a member of W.
func ValidWindow(s string) bool {
	_, ok := windowDurations[Window(s)]
	return ok
}
