package config

import "errors"

var (
	ErrLoad       = errors.New("config: load failed")
	ErrLoadFile   = errors.New("config: read file")
	ErrLoadDotenv = errors.New("config: read dotenv")
	ErrUnmarshal  = errors.New("config: unmarshal")
	ErrInvalid    = errors.New("config: invalid")
)
