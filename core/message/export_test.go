package message

import "time"

// SetNowFunc replaces the clock until restore is called.
func SetNowFunc(fn func() time.Time) (restore func()) {
	nowFunc = fn
	return func() { nowFunc = time.Now }
}
