// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "sort"

// Severity is the QA traffic-light scale. Ordering matters: green < amber < red.
type Severity int

const (
	SeverityGreen Severity = iota
	SeverityAmber
	SeverityRed
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityRed:
		return "red"
	case SeverityAmber:
		return "amber"
	default:
		return "green"
	}
}

// MarshalText makes severities readable in JSON payloads.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name; unknown names decode as green.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "red":
		*s = SeverityRed
	case "amber":
		*s = SeverityAmber
	default:
		*s = SeverityGreen
	}
	return nil
}

// QA issue categories.
const (
	IssueTextOverflow      = "text-overflow"
	IssueContainerOverflow = "container-overflow"
	IssueFontLoad          = "font-load"
)

// QAIssue is one detected layout problem for one text unit.
type QAIssue struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	EntryID  string   `json:"entryId,omitempty"`
	Message  string   `json:"message"`
}

// QAReport aggregates one language's QA pass. Recomputed wholesale on every
// pass; never incrementally patched.
type QAReport struct {
	Language string    `json:"language"`
	Status   Severity  `json:"status"`
	Issues   []QAIssue `json:"issues"`

	// IssueEntryIDs is the distinct set of unit ids implicated by any issue,
	// red or amber. It is the exact input to rewrite-shorter.
	IssueEntryIDs []string `json:"issueEntryIds"`
}

// NewQAReport aggregates issues into a report for the given language.
func NewQAReport(language string, issues []QAIssue) QAReport {
	r := QAReport{Language: language, Issues: issues, Status: SeverityGreen}
	seen := make(map[string]bool)
	for _, is := range issues {
		if is.Severity > r.Status {
			r.Status = is.Severity
		}
		if is.EntryID != "" && !seen[is.EntryID] {
			seen[is.EntryID] = true
			r.IssueEntryIDs = append(r.IssueEntryIDs, is.EntryID)
		}
	}
	sort.Strings(r.IssueEntryIDs)
	return r
}
