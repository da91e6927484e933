package constants

const (
	// Default scheduling options
	DefaultDayStartHour    = 9
	DefaultDayEndHour      = 20
	DefaultNoRepeatDays    = 0
	DefaultIntervalMinutes = 20
	DefaultJitterMinutes   = 2

	// Upper bounds for scheduling options. A day has 1440 minutes.
	MaxIntervalMinutes = 1440
	MaxJitterMinutes   = 1440
	MaxNoRepeatDays    = 365

	// DefaultWindowMinutes is the width of a rule's active window around its time anchor.
	DefaultWindowMinutes = 120

	// Other settings defaults
	DefaultNotificationsEnabled = true
	DefaultDispatchGraceMin     = 10
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultRefreshSpec          = "@hourly"
	DefaultDispatchSpec         = "@every 1m"
)
