// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// LangStatus is the per-language state machine tag. States are strictly
// ordered with no skipping: pending → duplicating → translating → applying →
// qa → done. Error is reachable from translating, cancelled from any
// non-terminal state, and done may be revisited through the rewrite-shorter
// path (done → applying → qa → done).
type LangStatus string

const (
	StatusPending     LangStatus = "pending"
	StatusDuplicating LangStatus = "duplicating"
	StatusTranslating LangStatus = "translating"
	StatusApplying    LangStatus = "applying"
	StatusQA          LangStatus = "qa"
	StatusDone        LangStatus = "done"
	StatusError       LangStatus = "error"
	StatusCancelled   LangStatus = "cancelled"
)

// Terminal reports whether the status ends a language's main run.
func (s LangStatus) Terminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCancelled
}

// CanTransition reports whether the state machine permits moving from s to
// next. Cancelled is reachable from every non-terminal state.
func (s LangStatus) CanTransition(next LangStatus) bool {
	if next == StatusCancelled {
		return !s.Terminal()
	}
	switch s {
	case StatusPending:
		return next == StatusDuplicating
	case StatusDuplicating:
		// Duplication failures are modeled as fatal to the language.
		return next == StatusTranslating || next == StatusError
	case StatusTranslating:
		return next == StatusApplying || next == StatusError
	case StatusApplying:
		return next == StatusQA
	case StatusQA:
		return next == StatusDone
	case StatusDone:
		// Rewrite-shorter re-enters the apply phase.
		return next == StatusApplying
	default:
		return false
	}
}

// LangProgress is one language's live state during a run. Mutated throughout
// the run, read by the control surface, discarded at run end.
type LangProgress struct {
	Language LanguageTarget `json:"language"`
	Status   LangStatus     `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Report   *QAReport      `json:"report,omitempty"`
}

// Run summary notification classes shown to the user at run end.
const (
	SummaryAllGreen    = "all-green"
	SummaryHasWarnings = "has-warnings"
	SummaryHasFailures = "has-failures"
)

// RunSummary is the aggregate produced once every language has reached a
// terminal state.
type RunSummary struct {
	Class   string     `json:"class"`
	Reports []QAReport `json:"reports"`
	Errors  int        `json:"errors"`
}

// Summarize classifies a finished run from its per-language progress.
func Summarize(progress []LangProgress) RunSummary {
	sum := RunSummary{Class: SummaryAllGreen}
	for _, p := range progress {
		if p.Status == StatusError {
			sum.Errors++
			sum.Class = SummaryHasFailures
			continue
		}
		if p.Report == nil {
			continue
		}
		sum.Reports = append(sum.Reports, *p.Report)
		if sum.Class == SummaryHasFailures {
			continue
		}
		switch p.Report.Status {
		case SeverityRed:
			sum.Class = SummaryHasFailures
		case SeverityAmber:
			if sum.Class == SummaryAllGreen {
				sum.Class = SummaryHasWarnings
			}
		}
	}
	return sum
}
