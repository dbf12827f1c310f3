package core

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a one-way salted hash of plain. cost is the bcrypt work
// factor; values below bcrypt.MinCost fall back to the library default.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword re-derives and compares; bcrypt's comparison is constant-time.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
