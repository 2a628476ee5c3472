package utils

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func EncryptPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// NewBaseToken returns a fresh random base for upload hashes, a uuid with
// the dashes stripped so the "_<editCount>" suffix stays unambiguous.
func NewBaseToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
