package domain

import "time"

// User models an account as held by the credential store.
// PasswordHash must never leave the store/service boundary; use Public
// whenever a user is written to a response.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	Department   string    `json:"department,omitempty"`
	Location     string    `json:"location,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the only representation of a user that crosses the API
// boundary.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Bio        string    `json:"bio,omitempty"`
	Department string    `json:"department,omitempty"`
	Location   string    `json:"location,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Public projects u onto its external-facing view.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Bio:        u.Bio,
		Department: u.Department,
		Location:   u.Location,
		Phone:      u.Phone,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// PublicUsers projects a slice of users.
func PublicUsers(users []*User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// UserUpdate carries the mutable profile fields. Nil fields are left as-is.
type UserUpdate struct {
	Name       *string
	Email      *string
	Role       *Role
	Bio        *string
	Department *string
	Location   *string
	Phone      *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil &&
		u.Bio == nil && u.Department == nil && u.Location == nil && u.Phone == nil
}

// Identity is the per-request principal attached by the auth gate.
type Identity struct {
	UserID string
	Role   Role
	User   PublicUser
}

// Owns reports whether the identity is the user with the given id.
func (i Identity) Owns(userID string) bool {
	return i.UserID != "" && i.UserID == userID
}
