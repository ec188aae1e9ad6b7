package memory

import (
	"errors"

	"pet-adoption/internal/ports/storage"
)

var (
	ErrNotFound      = storage.ErrNotFound
	ErrAlreadyExists = errors.New("already exists")
)
