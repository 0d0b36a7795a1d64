package schema

// Authentication.

// LoginRequest carries credentials for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries user data for POST /register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse reports the issued credential and user.
type AuthResponse struct {
	Token Token  `json:"token"`
	User  User   `json:"user"`
	Error string `json:"error,omitempty"`
}

// Events.

// EventRequest carries event fields for create and update.
type EventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	Location    string `json:"location,omitempty"`
}

// UpdateProfileRequest carries profile fields for PUT /users/profile.
type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// APIError is the backend's error body shape. Some handlers report the
// reason under "error", others under "message".
type APIError struct {
	ErrorMessage string `json:"error,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Reason returns the reported failure reason, preferring "error".
func (e APIError) Reason() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.Message
}
