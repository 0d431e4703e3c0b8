package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/elimu/core"
)

// Roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN" // course instructor
)

var AllRoles = []string{RoleUser, RoleAdmin}

// bcryptCost is the hashing cost of stored passwords.
var bcryptCost = 10

type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	PasswordHash    []byte     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"` // UTC
	CreatedAt       time.Time  `json:"created_at"`        // UTC
	UpdatedAt       time.Time  `json:"updated_at"`        // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// NewUser contains information needed to sign up.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// Credentials are the sign-in inputs.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

type ConfirmEmail struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (ce *ConfirmEmail) Validate(validate *validator.Validate) error {
	ce.Code = core.CleanString(ce.Code)
	return validate.Struct(ce)
}
