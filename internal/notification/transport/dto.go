package transport

import "github.com/google/uuid"

// NotificationResponse is one in-app notification.
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	RefID     *uuid.UUID `json:"refId,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt string     `json:"createdAt"`
}

// NotificationListResponse wraps a page of notifications.
type NotificationListResponse struct {
	Items  []NotificationResponse `json:"items"`
	Unread int                    `json:"unread"`
	Total  int                    `json:"total"`
}
