package domain

import "errors"

var (
	// ErrEmptyPool is returned when a destination is requested from an empty pool.
	ErrEmptyPool = errors.New("destination pool is empty")
	// ErrDestinationsUnavailable indicates the destination pool could not be loaded.
	ErrDestinationsUnavailable = errors.New("destinations unavailable")
	// ErrProfileNotFound is returned when a username has no profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUsernameRequired is returned for a blank username.
	ErrUsernameRequired = errors.New("username required")
	// ErrUsernameTaken is returned when creating a profile that already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrRoundNotFound indicates an unknown or expired round.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundAnswered is returned when a round is submitted twice.
	ErrRoundAnswered = errors.New("round already answered")
	// ErrRoundOwner is returned when a player submits another player's round.
	ErrRoundOwner = errors.New("round belongs to another player")
	// ErrSelectionRequired is returned when no option was selected.
	ErrSelectionRequired = errors.New("selection required")
	// ErrOptionNotOffered is returned when the selection is not one of the round's options.
	ErrOptionNotOffered = errors.New("option not offered in this round")
	// ErrResetDisabled is returned when profile reset is turned off.
	ErrResetDisabled = errors.New("reset disabled")
)
