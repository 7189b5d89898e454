package hash

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a salted bcrypt hash of the password. A fresh salt
// is generated on every call, so two hashes of the same password differ.
func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CheckPassword reports whether password matches the stored hash. A wrong
// password is not an error, it is simply false; a malformed hash is also
// treated as a mismatch.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
