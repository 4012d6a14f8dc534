package model

import (
	"time"

	"github.com/iliyamo/zaporka-api/internal/apperr"
)

// Account is a registrant, identified by a unique phone number. Only admins
// carry a password, stored as a bcrypt hash and never returned to clients.
type Account struct {
	ID           string    `json:"id" bson:"_id"`
	PhoneNumber  string    `json:"phoneNumber" bson:"phoneNumber" validate:"required,max=32"`
	FirstName    string    `json:"firstName" bson:"firstName" validate:"required"`
	LastName     string    `json:"lastName" bson:"lastName" validate:"required"`
	Address      string    `json:"address" bson:"address" validate:"required"`
	Gender       string    `json:"gender,omitempty" bson:"gender,omitempty"`
	Role         Role      `json:"role" bson:"role" validate:"oneof=admin user"`
	PasswordHash string    `json:"passwordHash,omitempty" bson:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Account field names as persisted. Store filters and partial updates refer
// to fields by these names.
const (
	FieldPhoneNumber  = "phoneNumber"
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldAddress      = "address"
	FieldGender       = "gender"
	FieldRole         = "role"
	FieldPasswordHash = "passwordHash"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
)

// Validate checks required fields, the role enum and the role/password
// coupling: admins must have a hash, users must not.
func (a Account) Validate() error {
	if err := ValidateStruct(a); err != nil {
		return err
	}
	switch {
	case a.Role.RequiresPassword() && a.PasswordHash == "":
		return apperr.New(apperr.KindPasswordPolicyViolation, "password is required for admin accounts")
	case !a.Role.RequiresPassword() && a.PasswordHash != "":
		return apperr.New(apperr.KindPasswordPolicyViolation, "password is allowed only for admin accounts")
	}
	return nil
}

// Public returns a copy safe to hand to clients.
func (a Account) Public() Account {
	a.PasswordHash = ""
	return a
}

// Registration is the input of the register operation.
type Registration struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Gender      string `json:"gender"`
	Role        string `json:"role" validate:"omitempty,oneof=admin user"`
	Password    string `json:"password" validate:"max=72"`
}

// Credentials is the input of the login operation.
type Credentials struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// AccountPatch carries the fields of a partial account update. A nil field
// is absent and leaves the stored value untouched.
type AccountPatch struct {
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Address     *string `json:"address,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Role        *Role   `json:"role,omitempty"`
	Password    *string `json:"password,omitempty"`
}
