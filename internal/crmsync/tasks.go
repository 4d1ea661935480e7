package crmsync

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSyncProspect = "crm.sync_prospect"

type SyncProspectPayload struct {
	ProspectID string `json:"prospectId"`
}

func NewSyncProspectTask(payload SyncProspectPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncProspect, data), nil
}

func ParseSyncProspectPayload(task *asynq.Task) (SyncProspectPayload, error) {
	var payload SyncProspectPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SyncProspectPayload{}, err
	}
	return payload, nil
}
