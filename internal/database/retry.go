package database

import (
	"errors"

	"gorm.io/gorm"
)

// NumberAttempts bounds how often an insert that lost a race for the next
// public number is replayed.
const NumberAttempts = 3

// RetryOnDuplicate runs fn until it stops failing with a unique-key violation
// or attempts run out. fn must compute the contested value afresh each time.
// Requires TranslateError on the gorm config.
func RetryOnDuplicate(attempts int, fn func(attempt int) error) error {
	var err error
	for i := 1; i <= attempts; i++ {
		err = fn(i)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}
