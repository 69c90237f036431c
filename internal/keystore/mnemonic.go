// Package keystore manages the embedded wallet's recovery phrase and the
// encrypted seed derived from it.
package keystore

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// ErrInvalidWordCount indicates an unsupported phrase length.
var ErrInvalidWordCount = wserr.WithSuggestion(wserr.ErrInvalidInput, "word count must be 12 or 24")

//nolint:gochecknoglobals // compiled once
var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)
	bulletListRegex   = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// MaxTypoDistance bounds how far a word may be from a suggestion.
const MaxTypoDistance = 2

// GenerateMnemonic creates a new 12 or 24 word BIP39 phrase.
func GenerateMnemonic(wordCount int) (string, error) {
	var bits int
	switch wordCount {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", ErrInvalidWordCount
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases the phrase, strips list markers and commas,
// and collapses whitespace.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// ValidateMnemonic checks word count, vocabulary and checksum. Misspelt words
// are reported in the error suggestion.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)

	n := len(strings.Fields(normalized))
	if n != 12 && n != 24 {
		return wserr.WithDetails(wserr.ErrInvalidMnemonic, map[string]string{"words": fmt.Sprint(n)})
	}

	if typos := DetectTypos(normalized); len(typos) > 0 {
		return wserr.WithSuggestion(wserr.ErrInvalidMnemonic, FormatTypos(typos))
	}

	if !bip39.IsMnemonicValid(normalized) {
		return wserr.WithSuggestion(wserr.ErrInvalidMnemonic, "checksum mismatch: check the word order")
	}
	return nil
}

// MnemonicToSeed validates the phrase and returns its 64 byte BIP39 seed.
// The caller should zero the seed after use.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), passphrase)
	if err != nil {
		return nil, wserr.Wrap(wserr.ErrInvalidMnemonic, "deriving seed")
	}
	return seed, nil
}

// Typo describes a word that is not in the BIP39 list.
type Typo struct {
	Index      int
	Word       string
	Suggestion string
}

// IsValidWord reports whether word is in the English BIP39 list.
func IsValidWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}

// SuggestWord returns the closest BIP39 word within MaxTypoDistance, or "".
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	best := ""
	bestDist := math.MaxInt
	for _, w := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(input, w)
		if d == 0 {
			return w
		}
		if d < bestDist {
			best, bestDist = w, d
		}
	}
	if bestDist <= MaxTypoDistance {
		return best
	}
	return ""
}

// DetectTypos lists every unknown word with a suggested correction.
func DetectTypos(mnemonic string) []Typo {
	var typos []Typo
	for i, w := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if !IsValidWord(w) {
			typos = append(typos, Typo{Index: i, Word: w, Suggestion: SuggestWord(w)})
		}
	}
	return typos
}

// FormatTypos renders typos one per line with 1-based word positions.
func FormatTypos(typos []Typo) string {
	lines := make([]string, 0, len(typos))
	for _, t := range typos {
		if t.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("word %d: %q - did you mean %q?", t.Index+1, t.Word, t.Suggestion))
		} else {
			lines = append(lines, fmt.Sprintf("word %d: %q is not a BIP39 word", t.Index+1, t.Word))
		}
	}
	return strings.Join(lines, "\n")
}
