// Package core holds small host-facing helpers shared by the CLI and the
// cleaners: size formatting and platform descriptions.
package core

import (
	"github.com/dustin/go-humanize"
)

// FormatSize renders a byte count for display, e.g. "1.5 MB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.Bytes(uint64(-bytes))
	}
	return humanize.Bytes(uint64(bytes))
}

// FormatCount renders an item count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
