// Package tongues implements the Six Sacred Tongues encoding layer.
//
// Each tongue XORs data with a SHAKE-256 keystream seeded by the tongue's
// four-byte symbol and its current weight. XOR is self-inverse, so Decode is
// Encode, and FullDecode undoes FullEncode by applying the tongues in reverse.
package tongues

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

// Tongue identifies one of the six sacred tongues.
type Tongue int

const (
	Aelindra  Tongue = iota // light, creation: key seeds
	Khazul                  // shadow, entropy: noise injection
	Verenthis               // order, structure
	Nythara                 // chaos, transformation
	Solmyris                // balance, harmony
	Drakmori                // binding, seal: authentication tags

	numTongues = 6
)

// All lists the tongues in encoding order.
var All = []Tongue{Aelindra, Khazul, Verenthis, Nythara, Solmyris, Drakmori}

var names = [numTongues]string{"aelindra", "khazul", "verenthis", "nythara", "solmyris", "drakmori"}

var symbols = [numTongues][4]byte{
	{0xAE, 0x11, 0xD7, 0xA1},
	{0xCA, 0x20, 0x01, 0x11},
	{0xFE, 0x7E, 0x47, 0x15},
	{0x49, 0x48, 0xA7, 0xA0},
	{0x50, 0x14, 0x97, 0x15},
	{0xD7, 0xAC, 0x40, 0x71},
}

func (t Tongue) valid() bool { return t >= 0 && t < numTongues }

// String returns the lowercase tongue name.
func (t Tongue) String() string {
	if !t.valid() {
		return fmt.Sprintf("tongue(%d)", int(t))
	}
	return names[t]
}

// Symbol returns the tongue's keystream symbol.
func (t Tongue) Symbol() [4]byte {
	if !t.valid() {
		return [4]byte{}
	}
	return symbols[t]
}

const (
	// WeightThreshold is the weight a tongue must exceed to take part in WeightedEncode.
	WeightThreshold = 0.1

	// AuthTagSize is the size of a Drakmori authentication tag.
	AuthTagSize = 16

	// DefaultEntropyBytes is the noise length InjectEntropy uses for a zero amount.
	DefaultEntropyBytes = 32
)

// Layer applies tongue transforms under a set of weights. It is not safe to
// change weights while other goroutines encode.
type Layer struct {
	weights *Weights
}

// NewLayer returns a layer using w, or DefaultWeights when w is nil.
func NewLayer(w *Weights) *Layer {
	if w == nil {
		w = DefaultWeights()
	}
	return &Layer{weights: w}
}

// Weights returns the layer's weights.
func (l *Layer) Weights() *Weights { return l.weights }

func (l *Layer) keystream(t Tongue, n int) []byte {
	sym := t.Symbol()
	weightByte := byte(int(l.weights.Get(t)*255) & 0xFF)
	seed := append(sym[:], weightByte)

	out := make([]byte, n)
	sha3.ShakeSum256(out, seed)
	return out
}

// Encode transforms data with one tongue.
func (l *Layer) Encode(data []byte, t Tongue) []byte {
	ks := l.keystream(t, len(data))
	for i := range ks {
		ks[i] ^= data[i]
	}
	return ks
}

// Decode reverses Encode.
func (l *Layer) Decode(data []byte, t Tongue) []byte {
	return l.Encode(data, t)
}

// FullEncode applies all six tongues in order.
func (l *Layer) FullEncode(data []byte) []byte {
	out := append([]byte(nil), data...)
	for _, t := range All {
		out = l.Encode(out, t)
	}
	return out
}

// FullDecode reverses FullEncode.
func (l *Layer) FullDecode(data []byte) []byte {
	out := append([]byte(nil), data...)
	for i := len(All) - 1; i >= 0; i-- {
		out = l.Decode(out, All[i])
	}
	return out
}

// WeightedEncode applies the active tongues whose weight exceeds WeightThreshold.
func (l *Layer) WeightedEncode(data []byte, active []Tongue) []byte {
	out := append([]byte(nil), data...)
	for _, t := range active {
		if l.weights.Get(t) > WeightThreshold {
			out = l.Encode(out, t)
		}
	}
	return out
}

// AuthenticationTag returns the first 16 bytes of SHA3-256 over the
// Drakmori encoding of data.
func (l *Layer) AuthenticationTag(data []byte) [AuthTagSize]byte {
	sum := sha3.Sum256(l.Encode(data, Drakmori))
	var tag [AuthTagSize]byte
	copy(tag[:], sum[:AuthTagSize])
	return tag
}

// InjectEntropy appends amount random bytes, Kha'zul encoded, to data.
// A zero amount means DefaultEntropyBytes.
func (l *Layer) InjectEntropy(data []byte, amount int) ([]byte, error) {
	if amount < 0 {
		return nil, fmt.Errorf("entropy amount cannot be negative: %d", amount)
	}
	if amount == 0 {
		amount = DefaultEntropyBytes
	}
	noise := make([]byte, amount)
	if _, err := io.ReadFull(rand.Reader, noise); err != nil {
		return nil, fmt.Errorf("failed to read entropy: %w", err)
	}
	out := make([]byte, 0, len(data)+amount)
	out = append(out, data...)
	return append(out, l.Encode(noise, Khazul)...), nil
}

// KeySeed returns the Aelindra encoding of SHA3-512(context).
func (l *Layer) KeySeed(context []byte) []byte {
	base := sha3.Sum512(context)
	return l.Encode(base[:], Aelindra)
}
