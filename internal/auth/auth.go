// Package auth holds password hashing, password strength rules and
// session token generation.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes  = 72
	sessionTokenBytes = 32
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken returns a random hex encoded session token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "letmein1": {},
	"trustno1": {}, "superman": {}, "starwars": {}, "passw0rd": {}, "abc12345": {},
}

// ValidatePassword checks password against the strength rules and returns
// one message per violated rule. Attributes are user fields (username,
// email) the password must not resemble.
func ValidatePassword(password string, attributes ...string) []string {
	var problems []string

	if len(password) < MinPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, "This password is too long. It must contain at most 72 bytes.")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if tooSimilar(password, attributes) {
		problems = append(problems, "The password is too similar to your account details.")
	}

	return problems
}

func tooSimilar(password string, attributes []string) bool {
	pw := strings.ToLower(password)
	if len(pw) < 3 {
		return false
	}
	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if local, _, ok := strings.Cut(attr, "@"); ok {
			attr = local
		}
		if len(attr) < 3 {
			continue
		}
		if strings.Contains(pw, attr) || strings.Contains(attr, pw) {
			return true
		}
	}
	return false
}
