package domain

import (
	"strings"
	"time"
)

// IdentifierType is the kind of login identifier a user submitted.
type IdentifierType string

const (
	IdentifierPhone IdentifierType = "phone"
	IdentifierEmail IdentifierType = "email"
)

type Address struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	IsDefault bool   `json:"isDefault"`
}

type Preferences struct {
	Notifications bool `json:"notifications"`
	Newsletter    bool `json:"newsletter"`
	SMSUpdates    bool `json:"smsUpdates"`
}

// User is a storefront account. A user without a name has not completed
// profile setup yet.
type User struct {
	ID          int         `json:"id"`
	Name        string      `json:"name,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Email       string      `json:"email,omitempty"`
	Avatar      string      `json:"avatar,omitempty"`
	Addresses   []Address   `json:"addresses"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
}

// NeedsProfile reports whether the user still has to provide a name.
func (u User) NeedsProfile() bool {
	return strings.TrimSpace(u.Name) == ""
}
