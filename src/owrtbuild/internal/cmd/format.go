package cmd

import "fmt"

// boolLabel renders a boolean as one of two labels
func boolLabel(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

// byteCount renders a byte size in a human-readable decimal unit
func byteCount(n int64) string {
	if n < 0 {
		return "unknown"
	}
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}
