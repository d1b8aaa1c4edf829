package model

import "strings"

// Identity is what the identity service vouches for behind a credential.
type Identity struct {
	SubjectID string `json:"userId"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
}

// Profile is the display data used in notifications.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}
