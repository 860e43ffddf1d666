package domain

import (
	"net/http"
	"time"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/export"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
)

// Action is a row operation offered by a screen, sent as
// <method> <collection>/<id>[/<Path>].
type Action struct {
	Name   string
	Method string
	// Path is the sub-route after the item id; empty targets the item itself.
	Path string
	// Body builds the request body from the user supplied argument.
	Body func(arg string) any
}

// Screen describes one list screen.
type Screen[T any] struct {
	Name     string
	Title    string
	Endpoint api.Endpoint
	Schema   listing.Schema[T]
	Columns  []export.Column[T]
	// ExportPrefix starts export file names.
	ExportPrefix string
	RowID        func(T) string
	Actions      []Action
}

// Exporter returns the screen's exporter.
func (s Screen[T]) Exporter(now func() time.Time) export.Exporter[T] {
	return export.Exporter[T]{
		Prefix:  s.ExportPrefix,
		Title:   s.Title,
		Columns: s.Columns,
		Now:     now,
	}
}

// Action returns the named action.
func (s Screen[T]) Action(name string) (Action, bool) {
	for _, a := range s.Actions {
		if a.Name == name {
			return a, true
		}
	}

	return Action{}, false
}

// ActionNames lists the screen's actions in order.
func (s Screen[T]) ActionNames() []string {
	names := make([]string, len(s.Actions))
	for i, a := range s.Actions {
		names[i] = a.Name
	}

	return names
}

var deleteAction = Action{Name: "delete", Method: http.MethodDelete}

func statusAction(name, status string) Action {
	return Action{
		Name:   name,
		Method: http.MethodPatch,
		Path:   "status",
		Body: func(string) any {
			return map[string]string{"status": status}
		},
	}
}

func optionalInt(v *int) any {
	if v == nil {
		return nil
	}

	return *v
}

// AuditLogs is the read-only audit trail.
func AuditLogs() Screen[AuditLog] {
	return Screen[AuditLog]{
		Name:  "audit-logs",
		Title: "Audit logs",
		Endpoint: api.Endpoint{
			Path:           "/admin/audit-logs",
			SizeParam:      "pageSize",
			CollectionKeys: []string{"auditLogs", "logs"},
			OptionsPath:    "/admin/audit-logs/filters/{key}",
		},
		Schema: listing.Schema[AuditLog]{
			Fields: []listing.Field[AuditLog]{
				{Name: "action", Value: func(a AuditLog) any { return a.Action }},
				{Name: "module", Value: func(a AuditLog) any { return a.Module }},
				{Name: "user", Match: listing.MatchContains, Value: func(a AuditLog) any { return a.User.Name() }},
				{Name: "description", Match: listing.MatchContains, Value: func(a AuditLog) any { return a.Description }},
				{Name: "ip", Value: func(a AuditLog) any { return a.IPAddress }},
				{Name: "createdAt", Kind: listing.KindTime, Value: func(a AuditLog) any { return a.CreatedAt.Value() }},
			},
			SearchFields: []string{"action", "module", "user", "description", "ip"},
			DefaultSort:  listing.Sort{Key: "createdAt", Direction: listing.Desc},
			Remote: listing.Capabilities{
				Paging:  true,
				Filters: []string{"action", "module"},
			},
		},
		Columns: []export.Column[AuditLog]{
			{Header: "Date", Value: func(a AuditLog) any { return a.CreatedAt.Value() }},
			{Header: "User", Value: func(a AuditLog) any { return a.User.Name() }},
			{Header: "Action", Value: func(a AuditLog) any { return a.Action }},
			{Header: "Module", Value: func(a AuditLog) any { return a.Module }},
			{Header: "Description", Value: func(a AuditLog) any { return a.Description }},
			{Header: "IP address", Value: func(a AuditLog) any { return a.IPAddress }},
		},
		ExportPrefix: "audit-logs",
		RowID:        func(a AuditLog) string { return a.ID.String() },
	}
}

// GeneralFeedback is public feedback awaiting moderation. The backend
// returns the whole collection; everything else happens locally.
func GeneralFeedback() Screen[Feedback] {
	return Screen[Feedback]{
		Name:  "feedback",
		Title: "General feedback",
		Endpoint: api.Endpoint{
			Path:           "/admin/feedback/general",
			CollectionKeys: []string{"feedbacks", "feedback"},
		},
		Schema: listing.Schema[Feedback]{
			Fields: []listing.Field[Feedback]{
				{Name: "name", Match: listing.MatchContains, Value: func(f Feedback) any { return f.Name }},
				{Name: "email", Match: listing.MatchContains, Value: func(f Feedback) any { return f.Email }},
				{Name: "subject", Match: listing.MatchContains, Value: func(f Feedback) any { return f.Subject }},
				{Name: "message", Match: listing.MatchContains, Value: func(f Feedback) any { return f.Message }},
				{Name: "rating", Kind: listing.KindNumber, Value: func(f Feedback) any { return optionalInt(f.Rating) }},
				{Name: "status", Value: func(f Feedback) any { return string(f.Status) }},
				{Name: "createdAt", Kind: listing.KindTime, Value: func(f Feedback) any { return f.CreatedAt.Value() }},
			},
			SearchFields: []string{"name", "email", "subject", "message"},
			DefaultSort:  listing.Sort{Key: "createdAt", Direction: listing.Desc},
		},
		Columns: []export.Column[Feedback]{
			{Header: "Date", Value: func(f Feedback) any { return f.CreatedAt.Value() }},
			{Header: "Name", Value: func(f Feedback) any { return f.Name }},
			{Header: "Email", Value: func(f Feedback) any { return f.Email }},
			{Header: "Subject", Value: func(f Feedback) any { return f.Subject }},
			{Header: "Message", Value: func(f Feedback) any { return f.Message }},
			{Header: "Rating", Value: func(f Feedback) any { return optionalInt(f.Rating) }},
			{Header: "Status", Value: func(f Feedback) any { return string(f.Status) }},
		},
		ExportPrefix: "general-feedback",
		RowID:        func(f Feedback) string { return f.ID.String() },
		Actions: []Action{
			{Name: "publish", Method: http.MethodPatch, Path: "publish"},
			{Name: "reject", Method: http.MethodPatch, Path: "reject"},
			deleteAction,
		},
	}
}

// Resources are the safety resources shown to the public.
func Resources() Screen[Resource] {
	return Screen[Resource]{
		Name:  "resources",
		Title: "Resources",
		Endpoint: api.Endpoint{
			Path:           "/admin/resources",
			CollectionKeys: []string{"resources"},
		},
		Schema: listing.Schema[Resource]{
			Fields: []listing.Field[Resource]{
				{Name: "title", Match: listing.MatchContains, Value: func(r Resource) any { return r.Title }},
				{Name: "category", Value: func(r Resource) any { return r.Category }},
				{Name: "type", Value: func(r Resource) any { return r.Type }},
				{Name: "published", Kind: listing.KindBool, Value: func(r Resource) any { return r.Published }},
				{Name: "createdAt", Kind: listing.KindTime, Value: func(r Resource) any { return r.CreatedAt.Value() }},
			},
			SearchFields: []string{"title", "category", "type"},
			DefaultSort:  listing.Sort{Key: "createdAt", Direction: listing.Desc},
			Remote:       listing.Capabilities{Paging: true, Search: true},
		},
		Columns: []export.Column[Resource]{
			{Header: "Title", Value: func(r Resource) any { return r.Title }},
			{Header: "Category", Value: func(r Resource) any { return r.Category }},
			{Header: "Type", Value: func(r Resource) any { return r.Type }},
			{Header: "URL", Value: func(r Resource) any { return r.URL }},
			{Header: "Published", Value: func(r Resource) any { return r.Published }},
			{Header: "Created", Value: func(r Resource) any { return r.CreatedAt.Value() }},
		},
		ExportPrefix: "resources",
		RowID:        func(r Resource) string { return r.ID.String() },
		Actions: []Action{
			{
				Name:   "publish",
				Method: http.MethodPatch,
				Body:   func(string) any { return map[string]bool{"isPublished": true} },
			},
			{
				Name:   "unpublish",
				Method: http.MethodPatch,
				Body:   func(string) any { return map[string]bool{"isPublished": false} },
			},
			deleteAction,
		},
	}
}

// Incidents are reports filed by the public.
func Incidents() Screen[Incident] {
	return Screen[Incident]{
		Name:  "incidents",
		Title: "Incident reports",
		Endpoint: api.Endpoint{
			Path:           "/admin/incidents",
			CollectionKeys: []string{"incidents", "reports"},
			FilterParams:   map[string]string{"type": "incidentType"},
			OptionsPath:    "/admin/incidents/filters/{key}",
		},
		Schema: listing.Schema[Incident]{
			Fields: []listing.Field[Incident]{
				{Name: "trackingId", Value: func(i Incident) any { return i.TrackingID }},
				{Name: "type", Value: func(i Incident) any { return i.Type }},
				{Name: "station", Value: func(i Incident) any { return i.Station }},
				{Name: "status", Value: func(i Incident) any { return i.Status }},
				{Name: "location", Match: listing.MatchContains, Value: func(i Incident) any { return i.Location }},
				{Name: "reporter", Match: listing.MatchContains, Value: func(i Incident) any { return i.Reporter.Name() }},
				{Name: "reportedAt", Kind: listing.KindTime, Value: func(i Incident) any { return i.ReportedAt.Value() }},
			},
			SearchFields: []string{"trackingId", "type", "station", "location", "reporter"},
			DefaultSort:  listing.Sort{Key: "reportedAt", Direction: listing.Desc},
			Remote: listing.Capabilities{
				Paging:  true,
				Filters: []string{"status", "type", "station"},
			},
		},
		Columns: []export.Column[Incident]{
			{Header: "Tracking ID", Value: func(i Incident) any { return i.TrackingID }},
			{Header: "Type", Value: func(i Incident) any { return i.Type }},
			{Header: "Station", Value: func(i Incident) any { return i.Station }},
			{Header: "Status", Value: func(i Incident) any { return i.Status }},
			{Header: "Location", Value: func(i Incident) any { return i.Location }},
			{Header: "Reporter", Value: func(i Incident) any { return i.Reporter.Name() }},
			{Header: "Reported", Value: func(i Incident) any { return i.ReportedAt.Value() }},
		},
		ExportPrefix: "incident-reports",
		RowID:        func(i Incident) string { return i.ID.String() },
		Actions: []Action{
			{
				Name:   "status",
				Method: http.MethodPatch,
				Path:   "status",
				Body:   func(arg string) any { return map[string]string{"status": arg} },
			},
			statusAction("close", "Closed"),
		},
	}
}

// Users are the dashboard's accounts.
func Users() Screen[User] {
	return Screen[User]{
		Name:  "users",
		Title: "Users",
		Endpoint: api.Endpoint{
			Path:           "/admin/users",
			CollectionKeys: []string{"users"},
		},
		Schema: listing.Schema[User]{
			Fields: []listing.Field[User]{
				{Name: "name", Match: listing.MatchContains, Value: func(u User) any { return u.Name() }},
				{Name: "email", Match: listing.MatchContains, Value: func(u User) any { return u.Email }},
				{Name: "phone", Value: func(u User) any { return u.Phone }},
				{Name: "role", Value: func(u User) any { return u.Role }},
				{Name: "status", Value: func(u User) any { return u.Status }},
				{Name: "createdAt", Kind: listing.KindTime, Value: func(u User) any { return u.CreatedAt.Value() }},
			},
			SearchFields: []string{"name", "email", "phone"},
			DefaultSort:  listing.Sort{Key: "name", Direction: listing.Asc},
			Remote:       listing.Capabilities{Paging: true, Search: true, Filters: []string{"role"}},
		},
		Columns: []export.Column[User]{
			{Header: "Name", Value: func(u User) any { return u.Name() }},
			{Header: "Email", Value: func(u User) any { return u.Email }},
			{Header: "Phone", Value: func(u User) any { return u.Phone }},
			{Header: "Role", Value: func(u User) any { return u.Role }},
			{Header: "Status", Value: func(u User) any { return u.Status }},
			{Header: "Joined", Value: func(u User) any { return u.CreatedAt.Value() }},
		},
		ExportPrefix: "users",
		RowID:        func(u User) string { return u.ID.String() },
		Actions:      []Action{deleteAction},
	}
}
