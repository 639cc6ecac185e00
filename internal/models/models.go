package models

import "time"

// Task statuses as shown on the board.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// ValidTaskStatuses enumerates the statuses a task may carry.
var ValidTaskStatuses = map[string]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

// StatusRank orders statuses for the status sort mode.
var StatusRank = map[string]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusCompleted:  2,
}

// DefaultTagColor is applied when a tag is created without a color.
const DefaultTagColor = "gray"

// ValidTagColors is the fixed palette tags may use.
var ValidTagColors = map[string]struct{}{
	"gray":   {},
	"red":    {},
	"orange": {},
	"yellow": {},
	"green":  {},
	"blue":   {},
	"purple": {},
	"pink":   {},
}

// MaxBioLength caps the profile bio field.
const MaxBioLength = 200

// User is an account record. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       *string   `json:"avatar"`
	Bio          *string   `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile returns the caller-facing projection of the user record.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

// Profile is the subset of a user record returned to its own holder.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    *string   `json:"avatar"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// Owner is the minimal projection of a task's owner embedded in task
// responses. Avatar is only populated on single-task reads.
type Owner struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
}

// Task represents a unit of work owned by exactly one user.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	User        *Owner     `json:"user,omitempty"`
	Tags        []Tag      `json:"tags,omitempty"`
}

// Tag is a user-scoped label. Names are unique per owner, not globally.
type Tag struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	UserID string `json:"userId"`
}
