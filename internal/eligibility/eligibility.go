// Package eligibility decides whether a task's assignment makes the local
// identity eligible for a notification.
package eligibility

import (
	"github.com/starford/herald/internal/models"
	"github.com/starford/herald/internal/parser"
)

// AssigneeResolver expands a person or group reference into the normalized
// keys of the persons it names. *groups.Registry satisfies it.
type AssigneeResolver interface {
	ResolveAssignee(ref string) []string
}

// ShouldNotify applies the decision table:
//
//	no local identity        -> true
//	no assignees             -> notifyForUnassigned
//	one or more assignees    -> IsAssignedToUser
func ShouldNotify(assignees []string, localIdentity string, notifyForUnassigned bool, r AssigneeResolver) bool {
	if parser.Normalize(localIdentity) == "" {
		return true
	}
	if len(assignees) == 0 {
		return notifyForUnassigned
	}
	return IsAssignedToUser(assignees, localIdentity, r)
}

// IsAssignedToUser reports whether localIdentity appears among the persons
// that any of assignees resolves to. Group entries are expanded by r.
func IsAssignedToUser(assignees []string, localIdentity string, r AssigneeResolver) bool {
	me := parser.Normalize(localIdentity)
	if me == "" {
		return false
	}
	for _, ref := range assignees {
		for _, p := range r.ResolveAssignee(ref) {
			if parser.Normalize(p) == me {
				return true
			}
		}
	}
	return false
}

// Assignees coerces a raw assignee value into a list of references. A single
// string becomes a one-element list; non-string entries and blanks are
// dropped.
func Assignees(v any) []string {
	list, _ := models.StringList(v)
	return list
}

// FromMetadata reads the assignees of a task record. "assignees" wins over
// "assignee" when both are present.
func FromMetadata(md models.Metadata) []string {
	if v, ok := md.Raw("assignees"); ok {
		if list := Assignees(v); len(list) > 0 {
			return list
		}
	}
	v, _ := md.Raw("assignee")
	return Assignees(v)
}
