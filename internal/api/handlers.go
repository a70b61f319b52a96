package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/herald/internal/apperr"
	"github.com/starford/herald/internal/assignment"
	"github.com/starford/herald/internal/device"
	"github.com/starford/herald/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *assignment.Service
	broker *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil.
func NewHandler(svc *assignment.Service, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, broker: broker}
}

// refParam reads the required ?ref= query parameter.
func refParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ref := strings.TrimSpace(r.URL.Query().Get("ref"))
	if ref == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'ref' is required")
		return "", false
	}
	return ref, true
}

// ListGroups handles GET /api/groups.
//
//	@Summary		List groups found by the last discovery pass
//	@Tags			groups
//	@Produce		json
//	@Success		200	{object}	GroupListResponse
//	@Security		BearerAuth
//	@Router			/groups [get]
func (h *Handler) ListGroups(w http.ResponseWriter, _ *http.Request) {
	groups := h.svc.Groups()
	writeJSON(w, http.StatusOK, GroupListResponse{Groups: groups, Total: len(groups)})
}

// DiscoverGroups handles POST /api/groups/discover.
//
//	@Summary		Re-run group discovery
//	@Tags			groups
//	@Produce		json
//	@Success		200	{object}	GroupListResponse
//	@Security		BearerAuth
//	@Router			/groups/discover [post]
func (h *Handler) DiscoverGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Refresh(r.Context())
	if err != nil {
		slog.Error("api: discover failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if h.broker != nil {
		h.broker.PublishGroupsUpdated(map[string]int{"count": len(groups)})
	}
	writeJSON(w, http.StatusOK, GroupListResponse{Groups: groups, Total: len(groups)})
}

// GroupMembers handles GET /api/groups/members.
//
//	@Summary		Direct, unexpanded members of a group
//	@Tags			groups
//	@Produce		json
//	@Param			ref	query		string	true	"Group reference"
//	@Success		200	{object}	MembersResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/groups/members [get]
func (h *Handler) GroupMembers(w http.ResponseWriter, r *http.Request) {
	ref, ok := refParam(w, r)
	if !ok {
		return
	}
	members, err := h.svc.GroupMembers(ref)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		slog.Error("api: group members failed", slog.String("ref", ref), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, MembersResponse{Ref: ref, Members: members})
}

// ResolveAssignee handles GET /api/assignees/resolve.
//
//	@Summary		Expand a person or group reference into persons
//	@Tags			groups
//	@Produce		json
//	@Param			ref	query		string	true	"Person or group reference"
//	@Success		200	{object}	ResolveResponse
//	@Security		BearerAuth
//	@Router			/assignees/resolve [get]
func (h *Handler) ResolveAssignee(w http.ResponseWriter, r *http.Request) {
	ref, ok := refParam(w, r)
	if !ok {
		return
	}
	resp := ResolveResponse{Ref: ref, Persons: nonNilSlice(h.svc.ResolveAssignee(ref))}
	for _, g := range h.svc.GroupsContaining(ref) {
		resp.Groups = append(resp.Groups, g.Path)
	}
	writeJSON(w, http.StatusOK, resp)
}

// PersonPreferences handles GET /api/people/preferences.
//
//	@Summary		Resolved notification preferences of a person
//	@Tags			people
//	@Produce		json
//	@Param			ref	query		string	true	"Person reference"
//	@Success		200	{object}	PreferencesResponse
//	@Security		BearerAuth
//	@Router			/people/preferences [get]
func (h *Handler) PersonPreferences(w http.ResponseWriter, r *http.Request) {
	ref, ok := refParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, PreferencesResponse{Ref: ref, Preferences: h.svc.Preferences(ref)})
}

// PersonReminders handles GET /api/people/reminders.
//
//	@Summary		Reminder fire times of a person for one anchor
//	@Tags			people
//	@Produce		json
//	@Param			ref		query		string	true	"Person reference"
//	@Param			anchor	query		string	true	"Anchor time (RFC 3339)"
//	@Success		200		{object}	RemindersResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/people/reminders [get]
func (h *Handler) PersonReminders(w http.ResponseWriter, r *http.Request) {
	ref, ok := refParam(w, r)
	if !ok {
		return
	}
	anchor, err := time.Parse(time.RFC3339, r.URL.Query().Get("anchor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter 'anchor' must be RFC 3339")
		return
	}
	times := h.svc.Reminders(r.Context(), ref, anchor)
	writeJSON(w, http.StatusOK, RemindersResponse{Ref: ref, Anchor: anchor, Reminders: nonNilSlice(times)})
}

// Eligibility handles POST /api/eligibility.
//
//	@Summary		Decide whether a set of assignees notifies this device
//	@Tags			eligibility
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EligibilityRequest	true	"Assignee references"
//	@Success		200		{object}	Decision
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/eligibility [post]
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req EligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Notify(r.Context(), req.Assignees))
}

// TaskEligibility handles GET /api/tasks/eligibility.
//
//	@Summary		Decide whether a task note notifies this device
//	@Tags			eligibility
//	@Produce		json
//	@Param			path	query		string	true	"Task note path"
//	@Success		200		{object}	Decision
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/eligibility [get]
func (h *Handler) TaskEligibility(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'path' is required")
		return
	}
	d, err := h.svc.TaskDecision(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		slog.Error("api: task eligibility failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GetDevicePreferences handles GET /api/device/preferences.
//
//	@Summary		Device overrides and effective settings
//	@Tags			device
//	@Produce		json
//	@Success		200	{object}	DevicePreferencesResponse
//	@Security		BearerAuth
//	@Router			/device/preferences [get]
func (h *Handler) GetDevicePreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, devicePreferences(h.svc.Device()))
}

// UpdateDevicePreferences handles PATCH /api/device/preferences.
//
//	@Summary		Set device overrides
//	@Tags			device
//	@Accept			json
//	@Produce		json
//	@Param			body	body		device.Preferences	true	"Fields to override"
//	@Success		200		{object}	DevicePreferencesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/device/preferences [patch]
func (h *Handler) UpdateDevicePreferences(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req device.Preferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.DeviceID = ""
	h.writeDeviceResult(w, h.svc.Device().Update(req))
}

// ClearDevicePreferences handles DELETE /api/device/preferences.
//
//	@Summary		Remove every device override
//	@Tags			device
//	@Produce		json
//	@Success		200	{object}	DevicePreferencesResponse
//	@Security		BearerAuth
//	@Router			/device/preferences [delete]
func (h *Handler) ClearDevicePreferences(w http.ResponseWriter, _ *http.Request) {
	h.writeDeviceResult(w, h.svc.Device().ClearAll())
}

// ClearDevicePreference handles DELETE /api/device/preferences/{field}.
//
//	@Summary		Remove one device override
//	@Tags			device
//	@Produce		json
//	@Param			field	path		string	true	"Field name, e.g. checkInterval"
//	@Success		200		{object}	DevicePreferencesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/device/preferences/{field} [delete]
func (h *Handler) ClearDevicePreference(w http.ResponseWriter, r *http.Request) {
	field := device.Field(chi.URLParam(r, "field"))
	h.writeDeviceResult(w, h.svc.Device().ClearOverride(field))
}

func (h *Handler) writeDeviceResult(w http.ResponseWriter, err error) {
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("api: device preferences failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp := devicePreferences(h.svc.Device())
	if h.broker != nil {
		h.broker.Publish(sse.Event{Type: sse.TypeDeviceUpdated, Data: resp.Effective})
	}
	writeJSON(w, http.StatusOK, resp)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
