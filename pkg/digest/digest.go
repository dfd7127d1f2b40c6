// Package digest prepares messages for wallet signature requests.
package digest

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MethodPersonalSign = "personal_sign"
	MethodEthSign      = "eth_sign"
)

// UTF8ToHex renders s as the 0x-prefixed digest wallets are asked to sign.
//
// Code points below 128 are written as their hex value with no zero
// padding, so "\n" becomes "a" rather than "0a". Everything else is
// written as the lowercase hex of its UTF-8 bytes, which is what
// percent-encoding with the '%' signs removed produces. Signatures made
// by existing clients depend on this exact output.
func UTF8ToHex(s string) string {
	var b strings.Builder
	b.Grow(2 + 2*len(s))
	b.WriteString("0x")

	var buf [utf8.UTFMax]byte
	for _, r := range s {
		if r < 128 {
			b.WriteString(strconv.FormatInt(int64(r), 16))
			continue
		}
		n := utf8.EncodeRune(buf[:], r)
		b.WriteString(hex.EncodeToString(buf[:n]))
	}
	return b.String()
}

// SigningCall picks the RPC method and parameter order for a signature
// request. MetaMask-compatible wallets take (digest, address) through
// personal_sign; all others take (address, digest) through eth_sign.
func SigningCall(isMetaMask bool, digest, address string) (string, []any) {
	if isMetaMask {
		return MethodPersonalSign, []any{digest, address}
	}
	return MethodEthSign, []any{address, digest}
}
