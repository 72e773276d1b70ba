package models

import (
	"strings"

	"github.com/noah-isme/turmas-api/pkg/cpf"
)

// UserRole represents the kind of account.
type UserRole string

const (
	// RoleStaff is the school staff role and grants the admin panel.
	RoleStaff    UserRole = "funcionario"
	RoleGuardian UserRole = "responsavel"
	RoleStudent  UserRole = "aluno"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStaff, RoleGuardian, RoleStudent:
		return true
	}
	return false
}

// User is an account stored in the "users" document. Email is the identity
// used on class rosters and favorites.
type User struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	Role         UserRole `json:"role,omitempty"`
	CPF          string   `json:"cpf,omitempty"`
	Avatar       *string  `json:"avatar,omitempty"`
}

// NormalizeEmail lower-cases and trims an email for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserInfo is the public view of a user.
type UserInfo struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role,omitempty"`
	CPF    string   `json:"cpf,omitempty"`
	Avatar *string  `json:"avatar,omitempty"`
}

// Info returns the public view of u with the CPF masked for display.
func (u User) Info() UserInfo {
	info := UserInfo{Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
	if u.CPF != "" {
		info.CPF = cpf.Format(u.CPF)
	}
	return info
}
