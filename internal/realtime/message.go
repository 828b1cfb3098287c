package realtime

import "github.com/google/uuid"

type SSEEvent string

const (
	SSEEventWorkflow      SSEEvent = "WorkflowEvent"
	SSEEventStepCompleted SSEEvent = "StepCompleted"
	SSEEventStatusChanged SSEEvent = "ProjectStatusChanged"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// ProjectChannel names the fan-out channel for one project's progress.
func ProjectChannel(projectID uuid.UUID) string {
	return "project:" + projectID.String()
}
