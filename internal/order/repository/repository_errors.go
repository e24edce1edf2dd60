package repository

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderExists     = errors.New("order already exists")
	ErrOrderTerminal   = errors.New("order already in terminal status")
	ErrProductNotFound = errors.New("product not found")
)
