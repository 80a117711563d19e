package engine

import "strconv"

// FormatPoints renders a point total with thousands groups separated by
// spaces, clamped at zero.
func FormatPoints(value int64) string {
	if value < 0 {
		value = 0
	}

	digits := strconv.FormatInt(value, 10)
	if len(digits) <= 3 {
		return digits
	}

	var out []byte
	lead := len(digits) % 3
	if lead > 0 {
		out = append(out, digits[:lead]...)
	}
	for i := lead; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, digits[i:i+3]...)
	}

	return string(out)
}
