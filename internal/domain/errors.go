package domain

import "errors"

var (
	// ErrGameNotFound is returned when a game has not been started or already ended.
	ErrGameNotFound = errors.New("game not found")
	// ErrCatalogNotFound indicates the flag catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrCatalogTooSmall is returned when a catalog cannot fill an option set.
	ErrCatalogTooSmall = errors.New("catalog has fewer distinct countries than options")
	// ErrInvalidFlag indicates a catalog entry without a country name.
	ErrInvalidFlag = errors.New("flag entry has no country")
	// ErrUnknownVariant is returned for a variant name that is not a preset.
	ErrUnknownVariant = errors.New("unknown variant")
	// ErrGameOver is returned when answering after a wrong answer ended the game.
	ErrGameOver = errors.New("game is over")
	// ErrAlreadyAnswered is returned for a second answer to the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrUnsupported indicates the operation is not part of the game's variant.
	ErrUnsupported = errors.New("operation not supported by variant")
)
