package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps a single hash around the 100ms mark on commodity
// hardware.
const DefaultBcryptCost = 12

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	passwordSymbols   = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"
)

// sequences feed the fixed table of 3-character runs rejected by the
// strength policy.
var sequences = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"0123456789",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

var sequentialRuns = buildSequentialRuns()

func buildSequentialRuns() []string {
	var runs []string
	for _, seq := range sequences {
		for i := 0; i+3 <= len(seq); i++ {
			runs = append(runs, seq[i:i+3])
		}
	}
	return runs
}

// PasswordHasher hashes and verifies passwords with a configured bcrypt cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher; non-positive cost falls back to the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash hashes a plaintext password with the configured cost.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a password against its hashed value. A mismatch is
// (false, nil); a non-nil error means the hash itself could not be processed.
func (h *PasswordHasher) Verify(password, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}

// StrengthResult reports the outcome of the password strength policy.
type StrengthResult struct {
	IsValid bool
	Errors  []string
}

// ScoreStrength evaluates every policy rule and accumulates all failures
// rather than short-circuiting on the first one.
func ScoreStrength(password string) StrengthResult {
	var failures []string

	if len(password) < minPasswordLength {
		failures = append(failures, fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		failures = append(failures, fmt.Sprintf("must be at most %d characters", maxPasswordLength))
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasLower {
		failures = append(failures, "must contain a lowercase letter")
	}
	if !hasUpper {
		failures = append(failures, "must contain an uppercase letter")
	}
	if !hasDigit {
		failures = append(failures, "must contain a digit")
	}
	if !hasSymbol {
		failures = append(failures, "must contain a symbol")
	}

	if hasRepeatedRun(password) {
		failures = append(failures, "must not repeat the same character 3 or more times in a row")
	}

	lowered := strings.ToLower(password)
	for _, run := range sequentialRuns {
		if strings.Contains(lowered, run) {
			failures = append(failures, fmt.Sprintf("must not contain the weak sequence %q", run))
			break
		}
	}

	return StrengthResult{IsValid: len(failures) == 0, Errors: failures}
}

func hasRepeatedRun(password string) bool {
	runes := []rune(password)
	for i := 2; i < len(runes); i++ {
		if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return true
		}
	}
	return false
}
