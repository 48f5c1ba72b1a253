package pipeline

import (
	"fmt"
	"strings"
)

// EncodeAddress renders index and sub-index as one lowercase hex address,
// the sub-index always taking two digits.
func EncodeAddress(index, sub uint64) string {
	return fmt.Sprintf("0x%x%02x", index, sub)
}

// EncodeIndex renders an address for dialects without a sub-index.
func EncodeIndex(index uint64) string {
	return fmt.Sprintf("0x%x", index)
}

// joinAddressTokens keeps the index token as written and appends the
// sub-index digits, so "0x2000" + "0x0A" gives "0x20000a".
func joinAddressTokens(index, sub string) string {
	idx := strings.ToLower(strings.TrimSpace(index))
	s := strings.ToLower(strings.TrimSpace(sub))
	s = strings.TrimPrefix(s, "0x")
	if len(s) < 2 {
		s = strings.Repeat("0", 2-len(s)) + s
	}
	return idx + s
}
