package service

import (
	"sync"

	"socialhub/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

// compareHash is swapped in tests to count comparisons.
var compareHash = bcrypt.CompareHashAndPassword

// decoyHash stands in for a stored hash when no account matches, so an unknown
// email costs the same bcrypt work as a wrong password.
var decoyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), BcryptCost)
	if err != nil {
		panic(err)
	}
	return hash
})

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// checkPassword reports whether password matches hash. An empty hash never matches.
func checkPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return compareHash([]byte(hash), []byte(password)) == nil
}

// checkDecoy burns one comparison against decoyHash. It never matches.
func checkDecoy(password string) {
	_ = compareHash(decoyHash(), []byte(password))
}
