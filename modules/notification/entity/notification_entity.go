package entity

type NotificationStatus string

const (
	StatusQueued NotificationStatus = "queued"
	StatusSent   NotificationStatus = "sent"
	StatusFailed NotificationStatus = "failed"
)

// Notification is one outbound email and its delivery state.
type Notification struct {
	ID        string             `db:"id" json:"id"`
	Recipient string             `db:"recipient" json:"recipient"`
	Subject   string             `db:"subject" json:"subject"`
	Body      string             `db:"body" json:"body"`
	Status    NotificationStatus `db:"status" json:"status"`
	Attempts  int                `db:"attempts" json:"attempts"`
	LastError string             `db:"last_error" json:"lastError,omitempty"`
	CreatedAt string             `db:"created_at" json:"createdAt"`
	UpdatedAt string             `db:"updated_at" json:"updatedAt"`
}
