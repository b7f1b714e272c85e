package repository

import (
	"fmt"
	"regexp"
	"strings"
)

var authorPattern = regexp.MustCompile(`^([^<]+)(<(.*)>)?$`)

// Author is the name and email parsed from a raw committer string.
type Author struct {
	name  string
	email string
}

// NewAuthor creates a new Author.
func NewAuthor(name, email string) Author {
	return Author{
		name:  name,
		email: email,
	}
}

// ParseAuthor splits a committer string such as "jsmith <jsmith@foo.bar>"
// into a name and an optional email. Strings that do not match yield an
// empty Author.
func ParseAuthor(raw string) Author {
	m := authorPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Author{}
	}
	return Author{
		name:  strings.TrimSpace(m[1]),
		email: strings.TrimSpace(m[3]),
	}
}

// Name returns the author's name.
func (a Author) Name() string { return a.name }

// Email returns the author's email.
func (a Author) Email() string { return a.email }

// IsEmpty returns true if no name is set.
func (a Author) IsEmpty() bool { return a.name == "" }

// HasEmail returns true if an email is set.
func (a Author) HasEmail() bool { return a.email != "" }

// String returns a formatted representation (Name <email>).
func (a Author) String() string {
	if a.email == "" {
		return a.name
	}
	return fmt.Sprintf("%s <%s>", a.name, a.email)
}

// Committer is a distinct committer string seen in a repository together
// with the user it is attributed to.
type Committer struct {
	name   string
	userID int64
}

// NewCommitter creates a Committer. A userID of zero means unattributed.
func NewCommitter(name string, userID int64) Committer {
	return Committer{name: name, userID: userID}
}

// Name returns the raw committer string.
func (c Committer) Name() string { return c.name }

// UserID returns the attributed user ID, or 0.
func (c Committer) UserID() int64 { return c.userID }

// HasUser reports whether the committer is attributed to a user.
func (c Committer) HasUser() bool { return c.userID > 0 }
