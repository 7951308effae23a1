package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an operator's password with bcrypt.  Costs outside
// bcrypt's valid range (misconfigured BCRYPT_COST) are clamped to the
// library default rather than failing account creation.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  The
// comparison is constant time inside bcrypt.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
