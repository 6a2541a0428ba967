package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskArchiveExpired is the task type for the announcement expiry sweep.
	TaskArchiveExpired = "announcements:archive_expired"
	// TaskAnalyzeAnnouncement is the task type for asynchronous re-analysis
	// of an announcement draft.
	TaskAnalyzeAnnouncement = "announcements:analyze"
)

// ArchiveExpiredPayload parameterises a sweep run.
type ArchiveExpiredPayload struct {
	TriggeredBy string `json:"triggered_by"`
}

// NewArchiveExpiredTask constructs an Asynq task for the expiry sweep.
func NewArchiveExpiredTask(triggeredBy string) (*asynq.Task, error) {
	data, err := json.Marshal(ArchiveExpiredPayload{TriggeredBy: triggeredBy})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArchiveExpired, data), nil
}

// AnalyzeAnnouncementPayload identifies the announcement to re-analyse.
type AnalyzeAnnouncementPayload struct {
	AnnouncementID string `json:"announcement_id"`
}

// NewAnalyzeAnnouncementTask constructs an Asynq task for re-analysis.
func NewAnalyzeAnnouncementTask(announcementID string) (*asynq.Task, error) {
	data, err := json.Marshal(AnalyzeAnnouncementPayload{AnnouncementID: announcementID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyzeAnnouncement, data), nil
}
