package domain

import "errors"

var (
	ErrNoToken          = errors.New("no session token stored")
	ErrNotAuthenticated = errors.New("not authenticated")
)
