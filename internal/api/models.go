package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/phrazzld/videosnap/internal/domain"
)

// CreateTaskRequest is the body of POST /i2v.
type CreateTaskRequest struct {
	Type        string `json:"type"         validate:"required,oneof=imaginative realistic"`
	ImageBase64 string `json:"image_base64" validate:"required"`
}

// StatusRequest is the body of POST /i2v/status. A bare JSON array of ids
// is accepted as well.
type StatusRequest struct {
	TaskIDs []string `json:"task_ids" validate:"required,min=1,max=100"`
}

// UnmarshalJSON accepts either {"task_ids": [...]} or [...].
func (s *StatusRequest) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &s.TaskIDs)
	}
	type plain StatusRequest
	return json.Unmarshal(data, (*plain)(s))
}

// TaskResponse is the client view of a task.
type TaskResponse struct {
	TID               string    `json:"tid"`
	SourceImage       string    `json:"source_image"`
	Status            string    `json:"status"`
	Type              string    `json:"type"`
	Provider          string    `json:"provider"`
	VideoGenerationID *string   `json:"video_generation_id,omitempty"`
	OutputVideo       *string   `json:"output_video,omitempty"`
	FailureReason     *string   `json:"failure_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StatusResponse is the body returned by POST /i2v/status.
type StatusResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// taskToResponse converts a domain task to its response DTO.
func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		TID:               t.ID.String(),
		SourceImage:       t.SourceImageRef,
		Status:            string(t.Status),
		Type:              string(t.Style),
		Provider:          string(t.Provider),
		VideoGenerationID: t.ProviderJobID,
		OutputVideo:       t.OutputRef,
		FailureReason:     t.FailureReason,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}
