package storage

import "errors"

var (
	ErrJobExists   = errors.New("job exists")
	ErrJobNotFound = errors.New("job not found")
)
