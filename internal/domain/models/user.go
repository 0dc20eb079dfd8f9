package models

import "time"

// User is the persisted identity record. PassHash is the bcrypt digest,
// never the plaintext. ResetToken and ResetTokenExpiry are either both
// set or both empty.
type User struct {
	ID               int64
	Email            string
	Name             string
	Phone            string
	PassHash         []byte
	ResetToken       string
	ResetTokenExpiry time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Profile is the client-facing view of a user. It carries no password
// material and no reset token state.
type Profile struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Phone: u.Phone,
	}
}
