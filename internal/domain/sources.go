package domain

// CalendarEvent is one event on the session day's calendar.
type CalendarEvent struct {
	Title          string
	Start          Timestamp
	StartFormatted string // "3:04 pm" in the home timezone; empty for all-day
	AllDay         bool
	Location       string
	Account        string
	Label          string
}

// Email is one unread or starred inbox row.
type Email struct {
	ID      string
	From    string
	Subject string
	Snippet string
	Date    Timestamp
	Account string
	Label   string

	// LooksResolved is a heuristic on starred mail only: the thread has
	// been read and has sat untouched long enough that the star may be
	// stale.
	LooksResolved bool
}

// BiometricSummary is one day's wearable readout. Nil pointers mean the
// provider returned no value for that metric.
type BiometricSummary struct {
	ReadinessScore       *int
	SleepScore           *int
	AvgHRV               *float64
	LowestHeartRate      *int
	TemperatureDeviation *float64
	TotalSleepSeconds    *int
	DeepSleepSeconds     *int
}

// GoogleToken is a stored OAuth credential for one connected Google
// account. The handshake that produces it lives outside this service.
type GoogleToken struct {
	AccountEmail string
	AccountLabel string
	AccessToken  string
	RefreshToken string
	Expiry       Timestamp
	UpdatedAt    Timestamp
}

// OuraToken is the stored Oura OAuth credential, at most one row.
type OuraToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       Timestamp
}
