package model

import "time"

// ContactBase holds every mutable field of a contact. It is the payload of
// both create and update requests; an update replaces all of these fields at
// once. AdditionalInfo is the only optional field and may be null.
type ContactBase struct {
	FirstName      string    `json:"first_name"      db:"first_name"      binding:"required,max=50"`
	LastName       string    `json:"last_name"       db:"last_name"       binding:"required,max=50"`
	Email          string    `json:"email"           db:"email"           binding:"required,email"`
	PhoneNumber    string    `json:"phone_number"    db:"phone_number"    binding:"required"`
	Birthday       time.Time `json:"birthday"        db:"birthday"        binding:"required"`
	AdditionalInfo *string   `json:"additional_info" db:"additional_info"`
}

// Contact is a stored contact. The Id is assigned by the database on creation
// and never changes afterwards.
type Contact struct {
	Id int64 `json:"id" db:"id"`
	ContactBase
}
