package services

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const maxFieldLength = 255

// bcrypt refuses passwords longer than 72 bytes.
const maxPasswordBytes = 72

var passwordRule = validation.Length(0, maxPasswordBytes).
	Error(fmt.Sprintf("ensure this field has no more than %d bytes", maxPasswordBytes))

var phonePattern = regexp.MustCompile(`^\+?\d{8,15}$`)

var phoneRule = validation.Match(phonePattern).
	Error("phone number must be entered in the format '+999999999'; up to 15 digits allowed")

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	PhoneNumber *string `json:"phone_number"`
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(0, maxFieldLength), is.Email),
		validation.Field(&in.Password, validation.Required, passwordRule),
		validation.Field(&in.City, validation.Length(0, maxFieldLength)),
		validation.Field(&in.Region, validation.Length(0, maxFieldLength)),
		validation.Field(&in.PhoneNumber, phoneRule),
	)
}

// ProfilePatch lists the profile fields a PATCH may change. Nil means
// "leave as is"; an empty PhoneNumber clears the stored number.
type ProfilePatch struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	City        *string `json:"city"`
	Region      *string `json:"region"`
	PhoneNumber *string `json:"phone_number"`
}

func (p ProfilePatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.NilOrNotEmpty, validation.Length(0, maxFieldLength), is.Email),
		validation.Field(&p.Username, validation.Length(0, maxFieldLength)),
		validation.Field(&p.City, validation.Length(0, maxFieldLength)),
		validation.Field(&p.Region, validation.Length(0, maxFieldLength)),
		validation.Field(&p.PhoneNumber, phoneRule),
	)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

func (in ForgotPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
	)
}

type ResetPasswordInput struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (in ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Token, validation.Required),
		validation.Field(&in.Password, validation.Required, passwordRule),
	)
}

// validate runs v and converts ozzo field errors into *common.ValidationError.
func validate(v validation.Validatable) *common.ValidationError {
	err := v.Validate()
	if err == nil {
		return nil
	}

	ve := &common.ValidationError{}
	var fields validation.Errors
	if errors.As(err, &fields) {
		for field, ferr := range fields {
			ve.Add(field, ferr.Error())
		}
		return ve
	}
	ve.Add("non_field_errors", fmt.Sprint(err))
	return ve
}
