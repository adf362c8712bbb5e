package att

import "errors"

var (
	// ErrFilterCount indicates that a requested filter count is outside the
	// supported range of [1, MaxFilters].
	ErrFilterCount = errors.New("filter count is out of range [1, 12]")

	// ErrTransmission indicates that a requested transmission is outside the
	// valid range of [0, 1].
	ErrTransmission = errors.New("transmission is out of range [0, 1]")

	// ErrAlreadyStaged indicates that Stage was called on an attenuator that is
	// already staged.
	ErrAlreadyStaged = errors.New("attenuator is already staged")
)
