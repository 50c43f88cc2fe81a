package queue

import (
	"strings"

	"github.com/dustin/go-humanize"
)

var iconByExtension = map[string]string{
	".mt940": "💰",
	".xml":   "💼",
	".bai":   "🏛️",
	".bai2":  "🏛️",
	".csv":   "📊",
	".txt":   "📄",
}

// FormatSize renders a byte count for the queue view.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// Icon picks a glyph for a file name by extension.
func Icon(name string) string {
	if icon, ok := iconByExtension[strings.ToLower(Extension(name))]; ok {
		return icon
	}
	return "📄"
}
