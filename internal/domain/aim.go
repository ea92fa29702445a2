package domain

import "time"

type AimStatus string

const (
	AimActive     AimStatus = "active"
	AimCompleted  AimStatus = "completed"
	AimSuperseded AimStatus = "superseded"
)

// Aim is a medium-term, user-authored intention. At most one aim is active
// at any moment; creating a new active aim supersedes the prior one
// atomically.
type Aim struct {
	ID                   AimID
	HeartWish            string // may be empty
	Statement            string
	StartDate            string // YYYY-MM-DD
	EndDate              string // empty = open-ended
	AccountabilityPerson string
	Status               AimStatus
	CreatedAt            Timestamp
}

// AimReflection is an append-only child of an aim. Multiple reflections per
// (aim, date) are permitted and all retained.
type AimReflection struct {
	ID               int64
	AimID            AimID
	Date             string
	Reflection       string
	PracticeHappened bool
	CreatedAt        Timestamp
}

// aimRenewalWindowDays is how long an aim can be held without renewal
// before the evening review should raise aim formation.
const aimRenewalWindowDays = 14

// NeedsAimFormation derives whether aim formation should be raised for the
// given session date: no active aim, the aim's end date has passed, or the
// aim has been held for more than two weeks without renewal. Derived, never
// stored.
func NeedsAimFormation(aim *Aim, date string) bool {
	if aim == nil {
		return true
	}
	if aim.EndDate != "" && aim.EndDate < date {
		return true
	}
	if aim.StartDate != "" {
		start, err := time.Parse(DateFormat, aim.StartDate)
		if err != nil {
			return false
		}
		day, err := time.Parse(DateFormat, date)
		if err != nil {
			return false
		}
		if day.Sub(start) > aimRenewalWindowDays*24*time.Hour {
			return true
		}
	}
	return false
}

// DaysHeld is the number of whole days since the aim started, floored at 0.
func (a *Aim) DaysHeld(date string) int {
	start, err := time.Parse(DateFormat, a.StartDate)
	if err != nil {
		return 0
	}
	day, err := time.Parse(DateFormat, date)
	if err != nil {
		return 0
	}
	days := int(day.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
