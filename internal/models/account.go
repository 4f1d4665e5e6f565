package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// Account is the identity record behind a User. The UID is the stable,
// externally visible user id referenced by every document collection.
// FirebaseUID is a pointer so local accounts store NULL and stay out of
// the unique index; an empty string there would make every second local
// signup collide.
type Account struct {
	gorm.Model    `json:"-"`
	ID            uint    `json:"id" gorm:"primaryKey"`
	UID           string  `json:"uid" gorm:"uniqueIndex"`
	Email         string  `json:"email" gorm:"uniqueIndex"`
	PasswordHash  string  `json:"-"`
	FirebaseUID   *string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	EmailVerified bool    `json:"email_verified"`
}

// LinkedToFirebase reports whether the account carries a federated identity.
func (a *Account) LinkedToFirebase() bool {
	return a.FirebaseUID != nil && *a.FirebaseUID != ""
}

// SignupRequest defines the request body for local account creation
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

// SigninRequest defines the request body for local authentication
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for federated login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}
