// Package lws implements the Langues Weighting System: letter-weight tables,
// a position-aware tokenizer, and the semantic binding that ties a subject
// identifier to a passphrase.
//
// Every token weight has the form
//
//	W = base(letter) · mean(phonetic(letter)) · (1 + 0.1·sin(position·φ))
//
// where base is a gematria value and phonetic is a four-feature vector.
// [SacredHash] folds the weights of a text with a cyclic prime sequence and
// hashes the result together with the text.
package lws
