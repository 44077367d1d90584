package models

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type User struct {
	Username     string `json:"username" dynamodbav:"username"`
	Email        string `json:"email" dynamodbav:"email"`
	FullName     string `json:"full_name,omitempty" dynamodbav:"full_name,omitempty"`
	PasswordHash string `json:"-" dynamodbav:"password_hash"`
	CreatedAt    int64  `json:"created_at" dynamodbav:"created_at"`
	Disabled     bool   `json:"disabled" dynamodbav:"disabled"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (r *RegisterRequest) Validate() *ValidationError {
	switch {
	case len(strings.TrimSpace(r.Username)) < 3:
		return newValidationError("username", "must be at least 3 characters")
	case len(r.Username) > 50:
		return newValidationError("username", "must be at most 50 characters")
	case !emailPattern.MatchString(r.Email):
		return newValidationError("email", "must be a valid email address")
	case len(r.Password) < 8:
		return newValidationError("password", "must be at least 8 characters")
	}
	return nil
}

func (r *LoginRequest) Validate() *ValidationError {
	if strings.TrimSpace(r.Username) == "" {
		return newValidationError("username", "must not be empty")
	}
	if r.Password == "" {
		return newValidationError("password", "must not be empty")
	}
	return nil
}
