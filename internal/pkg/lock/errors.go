package lock

import "errors"

// ErrLockTimeout is returned when a player lock cannot be acquired in time.
var ErrLockTimeout = errors.New("player lock acquisition timeout")
