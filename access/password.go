package access

import (
	"errors"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/warp/fee-engine/validation"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns the bcrypt hash of plain at the given cost. Passwords
// over MaxPasswordBytes fail validation.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", validation.Field("password", "must be at most "+strconv.Itoa(MaxPasswordBytes)+" bytes long")
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
