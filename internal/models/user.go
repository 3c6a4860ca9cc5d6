package models

import "time"

type User struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	Username       string     `bson:"username" json:"username"`
	Email          string     `bson:"email" json:"email"`
	Password       string     `bson:"password" json:"-"`
	Role           string     `bson:"role" json:"role"`
	FirstName      string     `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName       string     `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Phone          string     `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth    *time.Time `bson:"date_of_birth,omitempty" json:"dateOfBirth,omitempty"`
	Gender         string     `bson:"gender,omitempty" json:"gender,omitempty"`
	ProfilePicture string     `bson:"profile_picture,omitempty" json:"profilePicture,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updatedAt"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
