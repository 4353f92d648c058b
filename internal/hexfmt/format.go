// Package hexfmt renders rows of bytes as address | hex | ascii lines.
package hexfmt

import (
	"fmt"
	"strings"
)

// DefaultWidth is the number of bytes shown per row.
const DefaultWidth = 16

// RowCount returns how many rows of width bytes are needed for length bytes.
func RowCount(length int64, width int) int64 {
	if length <= 0 || width <= 0 {
		return 0
	}
	return (length + int64(width) - 1) / int64(width)
}

// Header returns the column header line for rows of width bytes.
func Header(width int) string {
	var b strings.Builder
	b.Grow(12 + width*4)
	b.WriteString("Address  | ")
	for i := range width {
		fmt.Fprintf(&b, "%02x ", i%256)
	}
	b.WriteString("| Ascii")
	return b.String()
}

// FormatRow renders one row starting at offset. A short row (end of file) is
// padded so the ascii column stays aligned.
func FormatRow(offset int64, row []byte, width int) string {
	var b strings.Builder
	b.Grow(12 + width*4)
	fmt.Fprintf(&b, "%08x | ", offset)

	for i := range width {
		if i < len(row) {
			fmt.Fprintf(&b, "%02x ", row[i])
		} else {
			b.WriteString("   ")
		}
	}

	b.WriteString("| ")
	for i := 0; i < len(row) && i < width; i++ {
		b.WriteByte(Printable(row[i]))
	}
	return b.String()
}

// HexString renders row as space-separated hex pairs.
func HexString(row []byte) string {
	var b strings.Builder
	b.Grow(len(row) * 3)
	for i, c := range row {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

// Printable maps non-printable ASCII to '.'.
func Printable(c byte) byte {
	if c >= 32 && c <= 126 {
		return c
	}
	return '.'
}
