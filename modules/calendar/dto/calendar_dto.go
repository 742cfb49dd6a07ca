package dto

// Google Calendar v3 wire types, limited to the fields the mirror uses.

type GoogleDateTime struct {
	DateTime string `json:"dateTime,omitempty"` // RFC3339
	Date     string `json:"date,omitempty"`     // all-day events
	TimeZone string `json:"timeZone,omitempty"`
}

type GoogleAttendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

type GoogleEvent struct {
	ID          string           `json:"id,omitempty"`
	Status      string           `json:"status,omitempty"`
	Summary     string           `json:"summary"`
	Description string           `json:"description,omitempty"`
	Start       GoogleDateTime   `json:"start"`
	End         GoogleDateTime   `json:"end"`
	Attendees   []GoogleAttendee `json:"attendees,omitempty"`
}

type GoogleEventList struct {
	Items         []GoogleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

type GoogleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// EventResponse is the API view of an external event.
type EventResponse struct {
	ID        string   `json:"id"`
	Summary   string   `json:"summary"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	AllDay    bool     `json:"allDay,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
}

type EventListResponse struct {
	Date   string          `json:"date"`
	Events []EventResponse `json:"events"`
}
