package session

const (
	// KeyToken is the store key holding the bearer token.
	KeyToken = "token"
	// KeyUsername is the store key holding the username the token belongs to.
	KeyUsername = "username"
)

// Session is a point-in-time copy of the stored authentication state.
// A zero Session means no user is logged in.
type Session struct {
	Token    string
	Username string
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
