package sourcemap

import (
	"fmt"
	"strings"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values = func() [128]int8 {
	var table [128]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		table[base64Alphabet[i]] = int8(i)
	}
	return table
}()

// encodeVLQ appends one base64 VLQ value: sign bit in the lowest bit, five
// payload bits per digit, continuation in the sixth.
func encodeVLQ(builder *strings.Builder, value int) {
	vlq := value << 1
	if value < 0 {
		vlq = (-value << 1) | 1
	}
	for {
		digit := vlq & 0x1f
		vlq >>= 5
		if vlq != 0 {
			digit |= 0x20
		}
		builder.WriteByte(base64Alphabet[digit])
		if vlq == 0 {
			return
		}
	}
}

// decodeVLQ reads one VLQ value from s starting at pos, returning the value
// and the position after it.
func decodeVLQ(s string, pos int) (int, int, error) {
	value := 0
	shift := 0
	for {
		if pos >= len(s) {
			return 0, pos, fmt.Errorf("truncated VLQ sequence")
		}
		c := s[pos]
		if c >= 128 || base64Values[c] < 0 {
			return 0, pos, fmt.Errorf("invalid VLQ character %q", c)
		}
		digit := int(base64Values[c])
		pos++
		value |= (digit & 0x1f) << shift
		if digit&0x20 == 0 {
			break
		}
		shift += 5
		if shift > 30 {
			return 0, pos, fmt.Errorf("VLQ value too large")
		}
	}
	if value&1 != 0 {
		return -(value >> 1), pos, nil
	}
	return value >> 1, pos, nil
}
