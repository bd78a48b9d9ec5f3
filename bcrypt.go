package account

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, passwordHashCost())
}

// HashPasswordWithCost hashes with an explicit bcrypt cost. Costs outside
// the bcrypt range fall back to the default.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash is a hash nobody knows the password for, used to keep
// timing uniform when the identity does not exist.
func RandomPasswordHash() string {
	return RandomPasswordHashWithCost(bcrypt.MinCost)
}

// RandomPasswordHashWithCost is RandomPasswordHash at the given cost, so a
// comparison against it takes as long as one against a stored hash.
func RandomPasswordHashWithCost(cost int) string {
	h, err := HashPasswordWithCost(uuid.NewString(), cost)
	if err != nil {
		return RandomPasswordHashWithCost(cost)
	}

	return h
}
