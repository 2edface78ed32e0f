package anvil

import "errors"

// ErrReleased is returned when a Manager is used after Release.
var ErrReleased = errors.New("manager has been released")
