package schema

import "time"

// EventID identifies an event.
type EventID string

// UserID identifies a user.
type UserID string

// Token is a bearer credential issued by the backend.
type Token string

// Subscriber is a user subscribed to an event.
type Subscriber struct {
	ID    UserID `json:"ID"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Event is an event as reported by the backend.
type Event struct {
	ID          EventID      `json:"ID"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Date        time.Time    `json:"date,omitempty"`
	Location    string       `json:"location,omitempty"`
	Subscribers []Subscriber `json:"Subscribers,omitempty"`
}

// IsSubscribed reports whether userID is in the event's subscriber set.
func (e Event) IsSubscribed(userID UserID) bool {
	if userID == "" {
		return false
	}
	for _, sub := range e.Subscribers {
		if sub.ID == userID {
			return true
		}
	}
	return false
}

// User is the authenticated user's profile.
type User struct {
	ID    UserID `json:"ID"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Photo is a single photo in an event's gallery.
type Photo struct {
	ID       string    `json:"ID,omitempty"`
	URL      string    `json:"url"`
	Uploaded time.Time `json:"uploadedAt,omitempty"`
}

// PhotoPage is one page of an event's photo listing.
type PhotoPage struct {
	Photos []Photo `json:"photos"`
	Total  int     `json:"total"`
}
