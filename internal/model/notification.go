package model

// Notification types.
const (
	NotificationReturnRequest = "return_request"
)

// ReturnRequestMessage is the text of a return_request notification.
const ReturnRequestMessage = "User has requested to return a system"

// Notification is an admin-facing alert.
type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
	ReadAt    string `json:"readAt,omitempty"`
}
