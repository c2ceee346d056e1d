package models

// AllowListIdentity is the identity record mirrored to the DMZ allow-list
// for registered users and roster players.
type AllowListIdentity struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	University string `json:"university"`
	Phone      string `json:"phone"`
}
