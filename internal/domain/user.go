package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

const (
	AuthLocal  = "local"
	AuthGoogle = "google"
)

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"                 json:"id"`
	Email             string             `bson:"email"                         json:"email"`
	PasswordHash      string             `bson:"password_hash"                 json:"-"`
	Name              string             `bson:"name"                          json:"name"`
	Role              Role               `bson:"role"                          json:"role"`
	FederatedID       string             `bson:"federated_id,omitempty"        json:"-"` // provider subject
	Avatar            string             `bson:"avatar,omitempty"              json:"-"`
	AuthType          string             `bson:"auth_type,omitempty"           json:"-"` // "local" | "google"
	RefreshTokenHash  *string            `bson:"refresh_token_hash"            json:"-"`
	ResetTokenHash    string             `bson:"reset_token_hash,omitempty"    json:"-"`
	ResetTokenExpires *time.Time         `bson:"reset_token_expires,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"created_at"                    json:"-"`
	UpdatedAt         time.Time          `bson:"updated_at"                    json:"-"`
}

// PublicUser is the only shape of a user that leaves the service.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID.Hex(), Email: u.Email, Name: u.Name, Role: u.Role}
}
