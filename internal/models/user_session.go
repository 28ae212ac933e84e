package models

// UserSession is the authenticated user context handed to the booking flow.
// Token issuance lives in the marketplace's auth service; this API only
// validates the session token and reads the profile fields it needs to seed
// a fresh dialog.
type UserSession struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// SeedContact returns the contact details a new dialog starts with.
func (s *UserSession) SeedContact() ContactDetails {
	return ContactDetails{
		Name:  s.Name,
		Email: s.Email,
	}
}
