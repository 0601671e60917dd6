package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = BcryptCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizeEmail приводит email к виду, в котором он хранится в БД.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
