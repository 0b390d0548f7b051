package layout

// GutterPaddingPx is the fixed space reserved next to the line numbers.
const GutterPaddingPx = 30

// CountDigits returns the number of decimal digits in n (1 for 0).
func CountDigits(n int) int {
	if n <= 0 {
		return 1
	}
	digits := 0
	for n > 0 {
		digits++
		n /= 10
	}
	return digits
}

// GutterWidthPx returns the pixels reserved for a line-number gutter able to
// show lineCount lines.
func GutterWidthPx(lineCount, cellWidthPx int) int {
	return CountDigits(lineCount)*cellWidthPx + GutterPaddingPx
}

// GutterColumns returns the number of character cells the gutter covers.
// It rounds up so numbers never overlap the text column.
func GutterColumns(lineCount, cellWidthPx int) int {
	if cellWidthPx < 1 {
		cellWidthPx = 1
	}
	px := GutterWidthPx(lineCount, cellWidthPx)
	return (px + cellWidthPx - 1) / cellWidthPx
}

// FormatNumber converts a non-negative number to a string.
func FormatNumber(n int) string {
	if n <= 0 {
		return "0"
	}

	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// PadLeft pads a string with spaces on the left to the specified width.
func PadLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	padding := make([]byte, width-len(s))
	for i := range padding {
		padding[i] = ' '
	}
	return string(padding) + s
}

// LineNumberLabel formats the 1-based label for derived line index, padded to
// the width needed by lineCount.
func LineNumberLabel(index, lineCount int) string {
	return PadLeft(FormatNumber(index+1), CountDigits(lineCount))
}
