package models

import "time"

type UserRole string

const (
	AdminRole  UserRole = "admin"
	MemberRole UserRole = "user"
)

// Import statuses reported by the backend for imported accounts.
const (
	ImportStatusPending   = "pending"
	ImportStatusCompleted = "completed"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

type User struct {
	UserID           int        `json:"user_id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Status           string     `json:"status,omitempty"`
	Role             UserRole   `json:"role,omitempty"`
	IsFirstTimeLogin bool       `json:"is_first_time_login"`
	ImportStatus     string     `json:"import_status,omitempty"`
	AssignedNodes    int        `json:"assigned_nodes,omitempty"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == AdminRole
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserStatusUpdate struct {
	IsFirstTimeLogin bool   `json:"is_first_time_login"`
	ImportStatus     string `json:"import_status"`
}

type UserProfileUpdate struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Nodes  int    `json:"nodes"`
}
