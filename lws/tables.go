package lws

// Gematria values for Latin letters and the digraphs ch, ts, sh and th.
var gematria = map[string]int{
	"a": 1, "b": 2, "g": 3, "d": 4, "h": 5,
	"v": 6, "w": 6, "z": 7, "ch": 8, "t": 9,
	"y": 10, "i": 10, "k": 20, "c": 20, "l": 30,
	"m": 40, "n": 50, "s": 60, "o": 70, "p": 80,
	"f": 80, "ts": 90, "q": 100, "r": 200, "sh": 300,
	"th": 400, "e": 5, "u": 6,
}

// PhoneticVector holds the articulatory features of a letter, each in [0, 1].
type PhoneticVector struct {
	Voicing  float64
	Place    float64
	Manner   float64
	Nasality float64
}

// Dot returns the dot product of v and o.
func (v PhoneticVector) Dot(o PhoneticVector) float64 {
	return v.Voicing*o.Voicing + v.Place*o.Place + v.Manner*o.Manner + v.Nasality*o.Nasality
}

// Mean returns the average of the four features.
func (v PhoneticVector) Mean() float64 {
	return (v.Voicing + v.Place + v.Manner + v.Nasality) / 4
}

// DefaultPhonetic is used for letters without a phonetic entry.
var DefaultPhonetic = PhoneticVector{0.5, 0.5, 0.5, 0}

var phonetics = map[rune]PhoneticVector{
	'a': {1.0, 0.5, 0.2, 0.0},
	'b': {1.0, 0.0, 0.8, 0.0},
	'c': {0.0, 0.7, 0.8, 0.0},
	'd': {1.0, 0.3, 0.8, 0.0},
	'e': {1.0, 0.4, 0.2, 0.0},
	'f': {0.0, 0.1, 0.4, 0.0},
	'g': {1.0, 0.7, 0.8, 0.0},
	'h': {0.0, 1.0, 0.4, 0.0},
	'i': {1.0, 0.3, 0.2, 0.0},
	'k': {0.0, 0.7, 0.8, 0.0},
	'l': {1.0, 0.3, 0.5, 0.0},
	'm': {1.0, 0.0, 0.8, 1.0},
	'n': {1.0, 0.3, 0.8, 1.0},
	'o': {1.0, 0.6, 0.2, 0.0},
	'p': {0.0, 0.0, 0.8, 0.0},
	'r': {1.0, 0.4, 0.5, 0.0},
	's': {0.0, 0.3, 0.4, 0.0},
	't': {0.0, 0.3, 0.8, 0.0},
	'u': {1.0, 0.7, 0.2, 0.0},
	'v': {1.0, 0.1, 0.4, 0.0},
	'w': {1.0, 0.0, 0.3, 0.0},
	'y': {1.0, 0.5, 0.3, 0.0},
	'z': {1.0, 0.3, 0.4, 0.0},
}

// SacredPrimes are the first thirteen primes, cycled over token order by SacredHash.
var SacredPrimes = [13]float64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41}

// Phonetic returns the phonetic vector of a lowercase letter, or DefaultPhonetic.
func Phonetic(r rune) PhoneticVector {
	if v, ok := phonetics[r]; ok {
		return v
	}
	return DefaultPhonetic
}
