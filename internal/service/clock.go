package service

import (
	"time"

	"avatar_bot/internal/domain"
)

// Clock supplies the current time. Quota resets are keyed on its UTC date.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

func (c Clock) now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c()
}

func (c Clock) today() time.Time {
	return domain.DateOf(c.now())
}

func checkID(id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	return nil
}
