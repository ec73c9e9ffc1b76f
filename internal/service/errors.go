package service

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrEmailTaken          = errors.New("Email already exists!")
	ErrInvalidCredentials  = errors.New("Email or password does not match")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("User not found")
	ErrTenantNotFound      = errors.New("Tenant not found")
	ErrTenantNameTaken     = errors.New("Tenant with this name already exist")
	ErrInvalidRole         = errors.New("role is not valid")
)
