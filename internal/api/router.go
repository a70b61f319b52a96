package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/herald/internal/assignment"
	"github.com/starford/herald/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, is mounted at GET /events inside the auth group and
// receives groups.updated and device.updated events.
func NewRouter(svc *assignment.Service, authEnabled bool, token string, broker *sse.Broker) chi.Router {
	h := NewHandler(svc, broker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Groups.
	r.Get("/groups", h.ListGroups)
	r.Post("/groups/discover", h.DiscoverGroups)
	r.Get("/groups/members", h.GroupMembers)
	r.Get("/assignees/resolve", h.ResolveAssignee)

	// People.
	r.Get("/people/preferences", h.PersonPreferences)
	r.Get("/people/reminders", h.PersonReminders)

	// Eligibility.
	r.Post("/eligibility", h.Eligibility)
	r.Get("/tasks/eligibility", h.TaskEligibility)

	// Device preferences.
	r.Get("/device/preferences", h.GetDevicePreferences)
	r.Patch("/device/preferences", h.UpdateDevicePreferences)
	r.Delete("/device/preferences", h.ClearDevicePreferences)
	r.Delete("/device/preferences/{field}", h.ClearDevicePreference)

	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}
