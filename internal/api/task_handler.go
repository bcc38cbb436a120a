package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/videosnap/internal/api/shared"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/platform/assets"
	"github.com/phrazzld/videosnap/internal/platform/logger"
	"github.com/phrazzld/videosnap/internal/service"
)

// DefaultMaxBodyBytes bounds request bodies carrying base64 images.
const DefaultMaxBodyBytes = 32 << 20

// TaskHandler serves the image-to-video endpoints.
type TaskHandler struct {
	tasks        service.TaskService
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewTaskHandler creates a TaskHandler. maxBodyBytes <= 0 uses DefaultMaxBodyBytes.
func NewTaskHandler(tasks service.TaskService, maxBodyBytes int64, logger *slog.Logger) *TaskHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:        tasks,
		logger:       logger.With("component", "task_handler"),
		maxBodyBytes: maxBodyBytes,
	}
}

// CreateTask handles POST /i2v.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			shared.CodeInvalidRequest, "Invalid image_base64: not valid base64", err)
		return
	}

	task, err := h.tasks.Create(r.Context(), domain.Style(req.Type), image)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Processing happens in the background.
	shared.RespondWithJSON(w, r, http.StatusAccepted, taskToResponse(task))
}

// GetStatuses handles POST /i2v/status.
func (h *TaskHandler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req StatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tasks, err := h.tasks.GetStatuses(r.Context(), req.TaskIDs)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := StatusResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// MinimaxCallback handles the provider's callback. It answers the
// verification handshake; job completion is observed by polling.
func (h *TaskHandler) MinimaxCallback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var body map[string]json.RawMessage
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			shared.CodeInvalidRequest, "Invalid request format", err)
		return
	}

	if challenge, ok := body["challenge"]; ok && string(challenge) != "null" {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]json.RawMessage{"challenge": challenge})
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("provider callback received",
		"task_id", string(body["task_id"]),
		"status", string(body["status"]))
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "success"})
}

// GetResource handles GET /resource/{name}.
func (h *TaskHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := assets.ValidateName(name); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusNotFound,
			shared.CodeNotFound, "Resource not found", err)
		return
	}

	data, err := h.tasks.GetAsset(r.Context(), name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", assets.ContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).
			Warn("failed to write resource", "name", name, "error", err)
	}
}

// Heartbeat handles GET /.
func (h *TaskHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Health handles GET /health.
func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error("failed to write health check response", "error", err)
	}
}
