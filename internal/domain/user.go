package domain

import "time"

// Role роль вызывающего, приходит из bearer токена
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an account that can own bookings
type User struct {
	ID        int64
	Username  string
	Email     string
	IsStaff   bool
	CreatedAt time.Time
}

// Actor кто выполняет операцию
type Actor struct {
	UserID int64
	Role   Role

	// Необязательные claims токена, используются для локальной записи users
	Username string
	Email    string
}

// IsAdmin returns true for administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage returns true if the actor may mutate or read the booking
func (a Actor) CanManage(b *Booking) bool {
	return a.IsAdmin() || b.IsOwnedBy(a.UserID)
}
