package intake

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Validator checks and normalizes one raw participant reply. It returns the
// normalized value and an empty reason on success, or a participant-facing
// rejection reason. Validators are total: any input string yields a value or
// a reason, never a panic or an error.
type Validator func(raw string) (value string, reason string)

// FreeText accepts any reply of at least minLen characters after trimming.
func FreeText(minLen int) Validator {
	return func(raw string) (string, string) {
		text := strings.TrimSpace(raw)
		if len([]rune(text)) < minLen {
			return "", fmt.Sprintf("Please write at least %d characters.", minLen)
		}
		return text, ""
	}
}

// OneOf accepts exactly one of the given options (the keyboard choices).
func OneOf(options ...string) Validator {
	return func(raw string) (string, string) {
		text := strings.TrimSpace(raw)
		for _, opt := range options {
			if text == opt {
				return opt, ""
			}
		}
		return "", "Please pick one of the offered options."
	}
}

// IntRange accepts a whole number in [min, max].
func IntRange(min, max int) Validator {
	return func(raw string) (string, string) {
		text := strings.TrimSpace(raw)
		n, err := strconv.Atoi(text)
		if err != nil {
			return "", fmt.Sprintf("Please enter a whole number between %d and %d.", min, max)
		}
		if n < min || n > max {
			return "", fmt.Sprintf("Please enter a number between %d and %d.", min, max)
		}
		return strconv.Itoa(n), ""
	}
}

// NumRange accepts a decimal number in [min, max]. The normalized value
// drops trailing zeros ("123.50" → "123.5").
func NumRange(min, max float64) Validator {
	return func(raw string) (string, string) {
		text := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return "", fmt.Sprintf("Please enter a number between %v and %v.", min, max)
		}
		if f < min || f > max {
			return "", fmt.Sprintf("Please enter a number between %v and %v.", min, max)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), ""
	}
}

// Pattern accepts input matching re; hint is the rejection message.
func Pattern(re *regexp.Regexp, hint string) Validator {
	return func(raw string) (string, string) {
		text := strings.TrimSpace(raw)
		if !re.MatchString(text) {
			return "", hint
		}
		return text, ""
	}
}

// phoneRe matches international phone numbers with optional separators.
var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,18}[0-9]$`)

// Phone accepts a phone number in a loose international format.
func Phone() Validator {
	return Pattern(phoneRe, "Please enter a phone number, e.g. +49 151 1234567.")
}
