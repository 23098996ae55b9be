package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("Invalid credentials")

// User is an account allowed to log in
type User struct {
	ID           string
	PasswordHash []byte
	Scope        string
}

// Users is a fixed set of accounts keyed by username
type Users map[string]User

// DemoUsers returns the development accounts admin/admin123 and demo/demo123
func DemoUsers() (Users, error) {
	accounts := []struct{ name, password, scope string }{
		{"admin", "admin123", "admin"},
		{"demo", "demo123", "default"},
	}
	users := make(Users, len(accounts))
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", a.name, err)
		}
		users[a.name] = User{ID: a.name, PasswordHash: hash, Scope: a.scope}
	}
	return users, nil
}

// Authenticate checks a username and password
func (u Users) Authenticate(username, password string) (User, error) {
	user, ok := u[username]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}
