package queue

import (
	"encoding/json"
)

type jobPayload struct {
	JobID int64 `json:"job_id"`
}

func encodeJobID(jobID int64) []byte {
	b, _ := json.Marshal(jobPayload{JobID: jobID})
	return b
}

// DecodeJobID extracts the job id an asynq task payload carries. The row
// itself (internal/catalog) remains the source of truth for everything
// else, so the payload need only identify which row to re-claim.
func DecodeJobID(payload []byte) (int64, error) {
	var p jobPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, errBadPayload
	}
	return p.JobID, nil
}
