package domain

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotificationApplicationStatus  NotificationType = "application_status"
	NotificationNewApplication     NotificationType = "new_application"
	NotificationJobPosted          NotificationType = "job_posted"
	NotificationInterviewScheduled NotificationType = "interview_scheduled"
	NotificationSystem             NotificationType = "system"
)

// RelatedEntity points at the object a notification refers to, for navigation.
type RelatedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Notification struct {
	ID            string           `json:"id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	Priority      Priority         `json:"priority"`
	IsRead        bool             `json:"isRead"`
	CreatedAt     time.Time        `json:"createdAt"`
	RelatedEntity *RelatedEntity   `json:"relatedEntity,omitempty"`
	ActionURL     string           `json:"actionUrl,omitempty"`
}

// NotificationPage is one successful poll result: the most recent N
// notifications plus the server-wide unread counter.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// NotificationState is the locally held collection, most-recent-first.
//
// UnreadCount is server-authoritative and counts across the full set, so it
// need not match the number of unread items in Items.
type NotificationState struct {
	Items       []Notification
	UnreadCount int
	Loading     bool
	LastSynced  time.Time
}

// Clone copies the items, including their related entities, so callers
// cannot alias the owner's data.
func (s NotificationState) Clone() NotificationState {
	out := s
	if s.Items != nil {
		out.Items = make([]Notification, len(s.Items))
		for i, n := range s.Items {
			out.Items[i] = n.Clone()
		}
	}
	return out
}

// Clone returns a copy that shares no pointers with n.
func (n Notification) Clone() Notification {
	if n.RelatedEntity != nil {
		e := *n.RelatedEntity
		n.RelatedEntity = &e
	}
	return n
}
