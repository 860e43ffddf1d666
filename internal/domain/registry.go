package domain

import (
	"slices"

	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
)

// Opener opens a session for one screen.
type Opener func(client *api.Client, opts SessionOptions) (Session, error)

func opener[T any](screen func() Screen[T]) Opener {
	return func(client *api.Client, opts SessionOptions) (Session, error) {
		return Open(screen(), client, opts)
	}
}

var registry = map[string]Opener{
	"audit-logs": opener(AuditLogs),
	"feedback":   opener(GeneralFeedback),
	"resources":  opener(Resources),
	"incidents":  opener(Incidents),
	"users":      opener(Users),
}

// ScreenNames lists the available screens, sorted.
func ScreenNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// OpenScreen opens the named screen.
func OpenScreen(name string, client *api.Client, opts SessionOptions) (Session, error) {
	open, ok := registry[name]
	if !ok {
		return nil, ewrap.New("unknown screen").
			WithMetadata("screen", name).
			WithMetadata("available", ScreenNames())
	}

	return open(client, opts)
}
