package nas

import "strings"

// GSM 7 bit default alphabet (3GPP TS 23.038 6.2.1). Escape sequences
// from the extension table are rendered as '?'.
var gsm7Alphabet = []rune(
	"@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞ?ÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
		"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà")

// decodeGSM7 unpacks septets from packed octets and maps them through
// the default alphabet. spareBits is the number of spare bits the
// sender declared for the last octet; a 7-bit tail that would decode
// as an extra '@' is dropped with it.
func decodeGSM7(packed []byte, spareBits uint8) string {
	bits := len(packed)*8 - int(spareBits)
	n := bits / 7
	var sb strings.Builder
	var acc uint16
	var accBits uint8
	i := 0
	for count := 0; count < n; count++ {
		for accBits < 7 {
			if i >= len(packed) {
				return sb.String()
			}
			acc |= uint16(packed[i]) << accBits
			accBits += 8
			i++
		}
		sept := acc & 0x7f
		acc >>= 7
		accBits -= 7
		sb.WriteRune(gsm7Alphabet[sept])
	}
	return sb.String()
}
