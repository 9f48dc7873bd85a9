package entity

import "errors"

var (
	ErrInvalidCoin  = errors.New("coin definition has no api id")
	ErrCoinExists   = errors.New("coin already tracked")
	ErrCoinNotFound = errors.New("coin not tracked")
)
