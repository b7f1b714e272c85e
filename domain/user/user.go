// Package user provides the user accounts committers are resolved to.
package user

import (
	"context"
	"strings"

	"github.com/helixml/scmtrack/domain/repository"
)

// User is an account of the project-management application.
type User struct {
	id        int64
	login     string
	mail      string
	firstname string
	lastname  string
	active    bool
}

// NewUser creates an active User.
func NewUser(login, mail, firstname, lastname string) User {
	return User{
		login:     login,
		mail:      mail,
		firstname: firstname,
		lastname:  lastname,
		active:    true,
	}
}

// ReconstructUser reconstructs a User from persistence.
func ReconstructUser(id int64, login, mail, firstname, lastname string, active bool) User {
	return User{
		id:        id,
		login:     login,
		mail:      mail,
		firstname: firstname,
		lastname:  lastname,
		active:    active,
	}
}

// ID returns the user ID.
func (u User) ID() int64 { return u.id }

// Login returns the login name.
func (u User) Login() string { return u.login }

// Mail returns the email address.
func (u User) Mail() string { return u.mail }

// Firstname returns the first name.
func (u User) Firstname() string { return u.firstname }

// Lastname returns the last name.
func (u User) Lastname() string { return u.lastname }

// Active reports whether the account is active.
func (u User) Active() bool { return u.active }

// Name returns "Firstname Lastname", falling back to the login.
func (u User) Name() string {
	name := strings.TrimSpace(u.firstname + " " + u.lastname)
	if name == "" {
		return u.login
	}
	return name
}

// WithID returns a copy with the specified ID.
func (u User) WithID(id int64) User {
	u.id = id
	return u
}

// WithActive returns a copy with the active flag set.
func (u User) WithActive(active bool) User {
	u.active = active
	return u
}

// Store defines the interface for User persistence.
type Store interface {
	Get(ctx context.Context, id int64) (User, error)
	Find(ctx context.Context, options ...repository.Option) ([]User, error)
	FindOne(ctx context.Context, options ...repository.Option) (User, error)
	Save(ctx context.Context, user User) (User, error)
}

// WithLogin filters by the "login" column.
func WithLogin(login string) repository.Option {
	return repository.WithCondition("login", login)
}

// WithMail filters by the "mail" column.
func WithMail(mail string) repository.Option {
	return repository.WithCondition("mail", mail)
}
