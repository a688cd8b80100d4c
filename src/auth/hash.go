package auth

import "golang.org/x/crypto/bcrypt"

// Hasher turns a plaintext password into an htpasswd digest.
type Hasher interface {
	Hash(password string) (string, error)
}

// BcryptHasher produces bcrypt digests, which Apache 2.4 accepts in
// AuthUserFile. Zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}
