package feature

import (
	"hash/fnv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// tokenize splits text into lowercase tokens after Unicode NFC
// normalization. Tokens are maximal runs of letters and digits; anything
// shorter than two runes is dropped as noise.
func tokenize(text string) []string {
	normalized := strings.ToLower(norm.NFC.String(text))

	tokens := make([]string, 0, 16)
	var b strings.Builder
	runes := 0
	flush := func() {
		if runes >= 2 {
			tokens = append(tokens, b.String())
		}
		b.Reset()
		runes = 0
	}

	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			runes++
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// hashToken maps a token into [0, dim) with FNV-1a.
func hashToken(token string, dim int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum64() % uint64(dim))
}
