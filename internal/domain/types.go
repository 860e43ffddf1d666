// Package domain defines the admin dashboard's list screens: row types as
// the backend serves them, and how each screen is listed, filtered and
// exported.
package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ID is a row identifier sent either as a JSON string or number.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""

		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(strings.TrimSpace(s))

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	*id = ID(n.String())

	return nil
}

// String returns the id.
func (id ID) String() string { return string(id) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Timestamp decodes the timestamp formats the backend emits: RFC 3339,
// naive date-times, dates and unix milliseconds. Unparseable values are zero.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON never fails on a bad value, so one odd row cannot hide a page.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed

				return nil
			}
		}

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if ms, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
		}
	}

	return nil
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Value returns the time, or nil when unset.
func (t Timestamp) Value() any {
	if t.IsZero() {
		return nil
	}

	return t.Time
}

// decodeRow decodes b into dst (a method-free alias of the row type) and
// falls back to "_id" when "id" is missing.
func decodeRow(b []byte, dst any, id *ID) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return err
	}

	if *id != "" {
		return nil
	}

	var alt struct {
		ID ID `json:"_id"`
	}

	if err := json.Unmarshal(b, &alt); err == nil {
		*id = alt.ID
	}

	return nil
}

// Person is an embedded user reference.
type Person struct {
	ID        ID     `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
}

// Name returns the display name, falling back to the email.
func (p *Person) Name() string {
	if p == nil {
		return ""
	}

	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}

	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
		return name
	}

	return p.Email
}

// AuditLog is one recorded admin action.
type AuditLog struct {
	ID          ID        `json:"id"`
	Action      string    `json:"action"`
	Module      string    `json:"module"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ipAddress"`
	User        *Person   `json:"user"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// UnmarshalJSON accepts "id" or "_id".
func (a *AuditLog) UnmarshalJSON(b []byte) error {
	type plain AuditLog

	return decodeRow(b, (*plain)(a), &a.ID)
}

// FeedbackStatus is the moderation state of general feedback.
type FeedbackStatus string

const (
	// FeedbackPending awaits moderation.
	FeedbackPending FeedbackStatus = "Pending"
	// FeedbackPublished is visible to the public.
	FeedbackPublished FeedbackStatus = "Published"
	// FeedbackRejected was declined.
	FeedbackRejected FeedbackStatus = "Rejected"
)

// Feedback is general feedback sent by the public.
type Feedback struct {
	ID        ID             `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Subject   string         `json:"subject"`
	Message   string         `json:"message"`
	Rating    *int           `json:"rating"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt Timestamp      `json:"createdAt"`
}

// UnmarshalJSON accepts "id" or "_id".
func (f *Feedback) UnmarshalJSON(b []byte) error {
	type plain Feedback

	return decodeRow(b, (*plain)(f), &f.ID)
}

// Resource is a published safety resource (article, video, document).
type Resource struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Published   bool      `json:"isPublished"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// UnmarshalJSON accepts "id" or "_id".
func (r *Resource) UnmarshalJSON(b []byte) error {
	type plain Resource

	return decodeRow(b, (*plain)(r), &r.ID)
}

// Incident is a report filed by the public.
type Incident struct {
	ID         ID        `json:"id"`
	TrackingID string    `json:"trackingId"`
	Type       string    `json:"incidentType"`
	Station    string    `json:"station"`
	Status     string    `json:"status"`
	Location   string    `json:"location"`
	Reporter   *Person   `json:"reporter"`
	ReportedAt Timestamp `json:"createdAt"`
}

// UnmarshalJSON accepts "id" or "_id".
func (i *Incident) UnmarshalJSON(b []byte) error {
	type plain Incident

	return decodeRow(b, (*plain)(i), &i.ID)
}

// User is an admin or station account.
type User struct {
	ID        ID        `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phoneNumber"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt Timestamp `json:"createdAt"`
}

// UnmarshalJSON accepts "id" or "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User

	return decodeRow(b, (*plain)(u), &u.ID)
}

// Name returns the full name.
func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
