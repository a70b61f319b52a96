package mcpserver

// RecordFormatContract describes the frontmatter herald reads from person,
// group and task notes.
const RecordFormatContract = `# Herald Record Format

Persons, groups and tasks are Markdown notes. Herald only reads their YAML
frontmatter; the body is ignored except for a first-level heading used as a
fallback title.

## Person

` + "```" + `markdown
---
type: person
availableFrom: "09:00"         # HH:MM or minutes after midnight (0-1439)
availableUntil: "17:00"
reminderLeadTimes:             # replaces the defaults [1 day, 15 minutes]
  - {value: 2, unit: hours}    # unit: minutes | hours | days | weeks
notificationEnabled: true
overrideGlobalReminders: true  # false merges with the vault-wide lead times
---
` + "```" + `

A single malformed lead time makes the whole list fall back to the defaults.
` + "`" + `reminderTime` + "`" + ` is still read as the window start when neither window key is set.

## Group

` + "```" + `markdown
---
type: group                    # or: team
title: Team Alpha
members:
  - "[[people/Alice]]"
  - "[[Team Beta|Beta]]"       # groups may contain groups
---
` + "```" + `

Membership is followed ten levels deep. Cycles are cut silently.

## Task

` + "```" + `markdown
---
assignees: ["[[Team Alpha]]", "[[people/Bob]]"]   # or a single assignee: "[[Bob]]"
due: 2026-03-10                                   # date or RFC 3339 timestamp
---
` + "```" + `

## References

A reference may be a wikilink, a path, or a bare name. Links are compared by
file name only, case-insensitively: ` + "`" + `[[people/Alice|Al]]` + "`" + `, ` + "`" + `people/Alice.md` + "`" + ` and
` + "`" + `alice` + "`" + ` all name the same person.
`
