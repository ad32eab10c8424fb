package model

// Session is a point-in-time view of the authentication state.
// IsAuthenticated is true exactly when Token is non-empty.
type Session struct {
	Token           string   `json:"token"`
	User            *Profile `json:"user,omitempty"`
	IsAuthenticated bool     `json:"isAuthenticated"`
}
