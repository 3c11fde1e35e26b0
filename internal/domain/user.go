package domain

import "time"

// Role names stored on the user record and carried in JWT claims.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

type User struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	Username  string    `json:"username" dynamodbav:"username"`
	Phone     string    `json:"phone_number" dynamodbav:"phone"`
	Email     string    `json:"email" dynamodbav:"email"`
	Role      string    `json:"role" dynamodbav:"role"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Profile is the sanitized user projection returned to callers after
// authentication. Email is an empty string rather than omitted when unset.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Phone    string `json:"phone_number"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:       u.UserID,
		Username: u.Username,
		Phone:    u.Phone,
		Email:    u.Email,
		Role:     u.Role,
	}
}
