package services

import "time"

// Clock abstracts time for services so expiry and completion logic can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by time.Now
func NewRealClock() Clock { return realClock{} }
