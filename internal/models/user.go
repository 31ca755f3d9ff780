package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	DefaultLanguage = "中文"
)

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Language     string `json:"language"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Actor is the identity a core call is made on behalf of. It replaces any
// notion of a global "current user".
type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Language string `json:"language"`
}

// SystemActor is used for bootstrap and maintenance commands.
var SystemActor = Actor{Username: "system", Role: RoleAdmin, Language: DefaultLanguage}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Name returns the username recorded in the audit log.
func (a Actor) Name() string {
	if a.Username == "" {
		return SystemActor.Username
	}
	return a.Username
}

func ActorFor(u *User) Actor {
	return Actor{Username: u.Username, Role: u.Role, Language: u.Language}
}

type ActionLogEntry struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Action      string    `json:"action"`
	TargetTable string    `json:"target_table"`
	TargetID    string    `json:"target_id"`
	Details     string    `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
}
