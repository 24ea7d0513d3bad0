// Package router classifies free-text tasks and dispatches them to the
// right agents, in a fixed order for composite tasks.
package router

import (
	"regexp"
)

// TaskType is the routing category for a task.
type TaskType string

const (
	TaskDiagnostic     TaskType = "diagnostic"
	TaskFileAnalysis   TaskType = "file_analysis"
	TaskChangeProposal TaskType = "change_proposal"
	TaskComposite      TaskType = "composite"
)

// Classification rules are an ordered table of case-insensitive word
// patterns. A task matching more than one label is composite; no match
// defaults to diagnostic.
type classifyRule struct {
	label   TaskType
	pattern *regexp.Regexp
}

var classifyRules = []classifyRule{
	{TaskDiagnostic, regexp.MustCompile(`(?i)\b(system|memory|cpu|disk|host|resource|health|diagnos\w*|status|uptime)\b`)},
	{TaskFileAnalysis, regexp.MustCompile(`(?i)\b(file|files|read|list|content|contents|director(y|ies)|analy[sz]e\w*|inspect)\b`)},
	{TaskChangeProposal, regexp.MustCompile(`(?i)\b(write|create|propose|proposal|modify|change|update|edit|patch|fix)\b`)},
}

// matchedCategories returns the categories whose keywords appear in the
// task, in the fixed execution order. The rule table order IS the
// execution order for composite runs.
func matchedCategories(task string) []TaskType {
	var matched []TaskType
	for _, rule := range classifyRules {
		if rule.pattern.MatchString(task) {
			matched = append(matched, rule.label)
		}
	}
	return matched
}

// Classify maps a task to a type. It is pure and total: every input,
// including the empty string, gets a type.
func Classify(task string) TaskType {
	switch matched := matchedCategories(task); len(matched) {
	case 0:
		return TaskDiagnostic
	case 1:
		return matched[0]
	default:
		return TaskComposite
	}
}

// steps returns the agent steps to run for a task, in order. Composite
// tasks run only their matched categories; an unclassifiable task falls
// back to a single diagnostic step.
func steps(task string) []TaskType {
	matched := matchedCategories(task)
	if len(matched) == 0 {
		return []TaskType{TaskDiagnostic}
	}
	return matched
}
