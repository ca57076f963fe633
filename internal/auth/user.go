package auth

// User is the backend's account payload. The client treats it as opaque
// beyond typing; the backend owns its shape.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	IsTester   bool   `json:"is_tester"`
	DateJoined string `json:"date_joined"`
}

// DisplayName returns the best human-readable label for the user.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
