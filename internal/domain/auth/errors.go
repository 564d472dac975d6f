package auth

import (
	"errors"

	"equipmarket/internal/domain"
)

// credentialError keeps the specific reason while matching domain.ErrAuth.
type credentialError struct{ msg string }

func (e *credentialError) Error() string        { return e.msg }
func (e *credentialError) Is(target error) bool { return target == domain.ErrAuth }

var (
	ErrUserNotFound  error = &credentialError{msg: "user not found"}
	ErrBadCredential error = &credentialError{msg: "wrong password"}
	ErrUsernameTaken error = errors.New("username already exists")
)
