package storage

import (
	"errors"

	"github.com/pendergraft/verifyprep/internal/deployment"
)

// Common storage errors
var (
	ErrNotFound        = deployment.ErrNotFound
	ErrInvalidLocation = errors.New("invalid deployment location")
)
