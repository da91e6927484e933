package constants

import "time"

const (
	AppName            = "nudge"
	DefaultKeyringUser = "database-connection"
	DefaultDataPath    = "~/.config/nudge"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Store keys
	KeyPrompts  = "prompts"
	KeyRules    = "rules"
	KeyHistory  = "history"
	KeyActions  = "actions"
	KeySettings = "settings"
	KeyPending  = "pending"

	// MaxPendingNotifications is the platform ceiling on scheduled notifications.
	MaxPendingNotifications = 64

	// Notification constants
	NotificationIDPrefix   = "nudge"
	NotificationSlotFormat = "20060102-1504"
	PromptActionsCategory  = "PROMPT_ACTIONS"
	ActionDoneIdentifier   = "DONE"
	ActionSkipIdentifier   = "SKIP"
	UserInfoPromptID       = "promptId"
	UserInfoPromptText     = "promptText"

	// Tray notifier constants
	NotifierLockfileName   = "nudge-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.nudge"
	TraySecretHeader       = "X-Nudge-Secret"
	TrayExecutablePrefix   = "nudge-tray"
	TrayRequestTimeout     = 5 * time.Second

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "nudge-"
	BackupFileSuffix = ".db"

	// Environment
	EnvDBConnection = "NUDGE_DB_CONNECTION"
)
