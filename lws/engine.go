package lws

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"unicode"
)

// Phi is the golden ratio, used as the phase step of context modifiers.
var Phi = (1 + math.Sqrt(5)) / 2

// Token is one weighted letter of a text.
type Token struct {
	Symbol          rune
	BaseWeight      float64
	Phonetic        PhoneticVector
	Position        int
	ContextModifier float64
}

// Weight returns base · mean(phonetic) · context.
func (t Token) Weight() float64 {
	return t.BaseWeight * t.Phonetic.Mean() * t.ContextModifier
}

// Gematria sums the letter values of text, case-insensitively. At each
// position a two-letter digraph is preferred over a single letter; runes
// without a value contribute nothing.
func Gematria(text string) int {
	runes := []rune(strings.ToLower(text))
	total := 0
	for i := 0; i < len(runes); {
		if i+1 < len(runes) {
			if v, ok := gematria[string(runes[i:i+2])]; ok {
				total += v
				i += 2
				continue
			}
		}
		total += gematria[string(runes[i])]
		i++
	}
	return total
}

// Tokenize returns one token per letter of text, lowercased. Non-letters are
// skipped and do not advance the position. Letters without a gematria value
// get base weight 1.
func Tokenize(text string) []Token {
	var tokens []Token
	position := 0
	for _, r := range strings.ToLower(text) {
		if !unicode.IsLetter(r) {
			continue
		}
		base, ok := gematria[string(r)]
		if !ok {
			base = 1
		}
		tokens = append(tokens, Token{
			Symbol:          r,
			BaseWeight:      float64(base),
			Phonetic:        Phonetic(r),
			Position:        position,
			ContextModifier: 1 + 0.1*math.Sin(float64(position)*Phi),
		})
		position++
	}
	return tokens
}

// Score returns the prime-weighted token sum of text scaled by
// gematria(text)/1000 + 1.
func Score(text string) float64 {
	var sum float64
	for i, t := range Tokenize(text) {
		sum += t.Weight() * SacredPrimes[i%len(SacredPrimes)]
	}
	return sum * (float64(Gematria(text))/1000 + 1)
}

// SacredHash returns SHA-256 of the big-endian float64 Score of text
// followed by the text itself.
func SacredHash(text string) [sha256.Size]byte {
	h := sha256.New()
	var score [8]byte
	binary.BigEndian.PutUint64(score[:], math.Float64bits(Score(text)))
	h.Write(score[:])
	h.Write([]byte(text))

	var out [sha256.Size]byte
	h.Sum(out[:0])
	return out
}
