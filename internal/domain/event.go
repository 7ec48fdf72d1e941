package domain

// DownloadEvent is one committed export, as recorded in the quota ledger.
// Rows are append-only: they are never updated or deleted, and the quota
// window is always re-derived from them rather than cached.
type DownloadEvent struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	StationID   string `json:"station_id"`
	Date        Date   `json:"date"`
}

// TriggerKind distinguishes the two ways a trigger reaches the service.
type TriggerKind string

const (
	// TriggerCommand is a slash command typed into the conversation.
	TriggerCommand TriggerKind = "command"
	// TriggerCallback is a tap on an inline keyboard button.
	TriggerCallback TriggerKind = "callback"
)

// Trigger is one inbound user interaction as delivered by the transport.
type Trigger struct {
	Kind           TriggerKind
	ConversationID int64
	MessageID      int
	UserID         int64
	DisplayName    string

	// Command holds the command name for TriggerCommand, without the
	// leading slash, with any arguments in Args.
	Command string
	Args    []string

	// Payload holds the opaque action payload for TriggerCallback.
	Payload string
}
