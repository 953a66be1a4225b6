package domain

import "time"

// Profile is the one-to-one descriptive data of a user.
type Profile struct {
	UserID       int64
	Birthday     *time.Time
	Gender       Gender
	Website      string
	Introduction string
}

type Gender int16

const (
	GenderUnknown Gender = 0
	GenderMale    Gender = 1
	GenderFemale  Gender = 2
)

// Extra holds aggregate login statistics. LoginNum only grows.
type Extra struct {
	UserID   int64
	LoginNum int64
	LoginAt  *time.Time
	LoginIP  string
}
