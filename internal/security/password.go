package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}:;,.?"

	// Characters easily confused with one another in common fonts.
	ambiguousChars = "lIO01|"
)

// DefaultGenerateLength is used when no length is requested.
const DefaultGenerateLength = 16

// Generate returns a random password of the given length containing at
// least one lowercase letter, uppercase letter, digit and symbol. The caller
// owns the returned slice and should wipe it.
func Generate(length int, avoidAmbiguous bool) ([]byte, error) {
	if length < MinPasswordLength || length > MaxPasswordLength {
		return nil, fmt.Errorf("%w: length must be between %d and %d",
			ErrInvalidArgument, MinPasswordLength, MaxPasswordLength)
	}

	sets := []string{lowerChars, upperChars, digitChars, symbolChars}
	if avoidAmbiguous {
		for i, set := range sets {
			sets[i] = strip(set, ambiguousChars)
		}
	}

	out := make([]byte, 0, length)
	for _, set := range sets {
		c, err := pick(set)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	all := strings.Join(sets, "")
	for len(out) < length {
		c, err := pick(all)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed characters are not always first.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return nil, err
		}
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Strength is a coarse password strength classification.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthFair
	StrengthGood
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthFair:
		return "fair"
	case StrengthGood:
		return "good"
	case StrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// Analysis is the result of Analyze.
type Analysis struct {
	Strength Strength
	Warnings []string
}

// Analyze grades a password by length and character class variety.
func Analyze(p []byte) Analysis {
	var lower, upper, digit, symbol bool
	for _, c := range p {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{lower, upper, digit, symbol} {
		if ok {
			classes++
		}
	}

	var a Analysis
	if len(p) < MinPasswordLength {
		a.Warnings = append(a.Warnings, fmt.Sprintf("shorter than %d characters", MinPasswordLength))
	} else if len(p) < 12 {
		a.Warnings = append(a.Warnings, "12 or more characters are recommended")
	}
	if classes < 3 {
		a.Warnings = append(a.Warnings, "mix uppercase, lowercase, digits and symbols")
	}

	switch {
	case len(p) < MinPasswordLength:
		a.Strength = StrengthWeak
	case classes >= 3 && len(p) >= 16:
		a.Strength = StrengthStrong
	case classes >= 3 && len(p) >= 12:
		a.Strength = StrengthGood
	case classes >= 2 || len(p) >= 12:
		a.Strength = StrengthFair
	default:
		a.Strength = StrengthWeak
	}
	return a
}

func pick(set string) (byte, error) {
	if set == "" {
		return 0, errors.New("empty character set")
	}
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}

func strip(s, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, s)
}
