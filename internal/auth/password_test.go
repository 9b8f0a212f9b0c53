package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hashed, err := hasher.Hash("Tr0ub4dor&3!")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hashed == "Tr0ub4dor&3!" {
		t.Fatal("Hash() returned the plaintext password")
	}

	ok, err := hasher.Verify("Tr0ub4dor&3!", hashed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false for the correct password")
	}

	ok, err = hasher.Verify("wrong-password", hashed)
	if err != nil {
		t.Fatalf("Verify(wrong) error = %v, want nil", err)
	}
	if ok {
		t.Error("Verify() = true for a wrong password")
	}
}

func TestPasswordHasher_HashesAreSalted(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("Tr0ub4dor&3!")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := hasher.Hash("Tr0ub4dor&3!")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical")
	}
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	ok, err := hasher.Verify("anything", "not-a-bcrypt-hash")
	if err == nil {
		t.Error("Verify(malformed hash) error = nil, want non-nil")
	}
	if ok {
		t.Error("Verify(malformed hash) = true")
	}
}

func TestNewPasswordHasher_DefaultCost(t *testing.T) {
	hasher := NewPasswordHasher(0)
	if hasher.cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", hasher.cost, DefaultBcryptCost)
	}
}

func TestScoreStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
		wantErrs int
	}{
		{name: "strong mixed password", password: "Tr0ub4dor&3!", valid: true},
		{name: "strong with symbols", password: "V4lid#Pw9x!", valid: true},
		{name: "classic weak word", password: "password", valid: false, wantErrs: 3},
		{name: "too short", password: "Ab1!", valid: false, wantErrs: 1},
		{name: "too long", password: strings.Repeat("Ab1!", 33), valid: false, wantErrs: 1},
		{name: "empty", password: "", valid: false, wantErrs: 5},
		{name: "no digit or symbol", password: "NoDigitsHere", valid: false, wantErrs: 2},
		{name: "repeated run", password: "Gooood#Pw91", valid: false, wantErrs: 1},
		{name: "alphabet sequence", password: "xAbcdZ#9k1", valid: false, wantErrs: 1},
		{name: "digit sequence", password: "Pw!x123zzQ", valid: false, wantErrs: 1},
		{name: "qwerty row sequence", password: "Qwerm19!xz", valid: false, wantErrs: 1},
		{name: "uppercase sequence still caught", password: "xABCdZ#9k1", valid: false, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScoreStrength(tt.password)
			if result.IsValid != tt.valid {
				t.Errorf("ScoreStrength(%q).IsValid = %v, want %v (errors: %v)",
					tt.password, result.IsValid, tt.valid, result.Errors)
			}
			if !tt.valid && len(result.Errors) != tt.wantErrs {
				t.Errorf("ScoreStrength(%q) errors = %v, want %d failures",
					tt.password, result.Errors, tt.wantErrs)
			}
			if tt.valid && len(result.Errors) != 0 {
				t.Errorf("ScoreStrength(%q) errors = %v, want none", tt.password, result.Errors)
			}
		})
	}
}

func TestScoreStrength_AccumulatesAllFailures(t *testing.T) {
	// A password failing several independent rules reports each of them.
	result := ScoreStrength("aaa")
	if result.IsValid {
		t.Fatal("ScoreStrength(\"aaa\").IsValid = true")
	}
	// Too short, no upper, no digit, no symbol, repeated run.
	if len(result.Errors) != 5 {
		t.Errorf("got %d failures (%v), want 5", len(result.Errors), result.Errors)
	}
}
