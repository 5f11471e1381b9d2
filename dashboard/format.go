package dashboard

import (
	"math"
	"strconv"
	"strings"
)

// FormatINR formats an amount in rupees with Indian digit grouping, rounded
// to whole rupees: 150000 -> ₹1,50,000.
func FormatINR(v float64) string {
	return "₹" + groupIndian(int64(math.Round(v)))
}

// FormatCount groups a count with Indian digit grouping.
func FormatCount(n int64) string {
	return groupIndian(n)
}

// FormatPercent renders a margin with one decimal place.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func groupIndian(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		parts = append([]string{head}, parts...)
		digits = strings.Join(parts, ",") + "," + tail
	}
	if neg {
		return "-" + digits
	}
	return digits
}
