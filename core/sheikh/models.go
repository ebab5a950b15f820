package sheikh

import "time"

// Sheikh is an instructor account. Every student and loo7 is owned by one.
type Sheikh struct {
	ID              string    `json:"id"`
	GoogleID        string    `json:"-"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"` // UTC
	UpdatedAt       time.Time `json:"updatedAt"` // UTC
}

// GoogleIdentity holds the claims of a verified Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
