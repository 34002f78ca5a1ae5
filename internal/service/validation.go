package service

import "github.com/go-playground/validator/v10"

var validate = validator.New()

func isValidEmail(email string) bool {
	return email != "" && validate.Var(email, "required,email") == nil
}
