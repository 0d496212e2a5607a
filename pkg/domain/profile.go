package domain

// Profile is the authenticated user's account info.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
