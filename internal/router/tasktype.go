// Package router decides which model should handle a turn: it
// classifies the user's task, maps task to model strength, and runs
// the switch machinery that moves a session between models.
package router

import "strings"

// TaskType categorizes what the user is asking for on a given turn.
// Produced per turn, never persisted beyond the decision it drives.
type TaskType string

const (
	TaskExploration     TaskType = "EXPLORATION"
	TaskPlanning        TaskType = "PLANNING"
	TaskTroubleshooting TaskType = "TROUBLESHOOTING"
	TaskReview          TaskType = "REVIEW"
	TaskDocumentation   TaskType = "DOCUMENTATION"
	TaskImplementation  TaskType = "IMPLEMENTATION"
)

// ParseTaskType maps a model reply to a TaskType. The matching policy
// lives here and nowhere else: trim, upper-case, exact match against
// the category names, IMPLEMENTATION for anything else.
func ParseTaskType(reply string) TaskType {
	cleaned := strings.ToUpper(strings.Trim(strings.TrimSpace(reply), ".\"'`"))
	switch TaskType(cleaned) {
	case TaskExploration, TaskPlanning, TaskTroubleshooting, TaskReview, TaskDocumentation, TaskImplementation:
		return TaskType(cleaned)
	default:
		return TaskImplementation
	}
}
