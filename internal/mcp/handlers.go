package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/ops"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/queue"
	"github.com/harms-haus/memoriae/internal/scheduler"
)

// DefaultUser is the identity tool calls run as. Memoriae is a single-user
// local app; the column exists so the schema survives growing past that.
const DefaultUser = "local"

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env   *ops.Env
	sched *scheduler.Scheduler
	user  string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env, sched *scheduler.Scheduler) *Handlers {
	return &Handlers{env: env, sched: sched, user: DefaultUser}
}

// Request types for each tool

// SeedStoreRequest represents the arguments for seed_store.
type SeedStoreRequest struct {
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	CategoryIDs []string `json:"category_ids,omitempty"`
	FollowUpAt  int64    `json:"follow_up_at,omitempty"`
}

// SeedFetchRequest represents the arguments for seed_fetch.
type SeedFetchRequest struct {
	ID         string `json:"id"`
	IncludeLog bool   `json:"include_log,omitempty"`
}

// SeedListRequest represents the arguments for seed_list.
type SeedListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SeedUpdateRequest represents the arguments for seed_update.
type SeedUpdateRequest struct {
	ID                string   `json:"id"`
	Title             *string  `json:"title,omitempty"`
	Content           *string  `json:"content,omitempty"`
	Note              *string  `json:"note,omitempty"`
	Status            *string  `json:"status,omitempty"`
	AddCategoryIDs    []string `json:"add_category_ids,omitempty"`
	RemoveCategoryIDs []string `json:"remove_category_ids,omitempty"`
	FollowUpAt        *int64   `json:"follow_up_at,omitempty"`
	ResolveFollowUp   bool     `json:"resolve_follow_up,omitempty"`
}

// SeedDeleteRequest represents the arguments for seed_delete.
type SeedDeleteRequest struct {
	ID string `json:"id"`
}

// CategoryCreateRequest represents the arguments for category_create.
type CategoryCreateRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// CategoryRenameRequest represents the arguments for category_rename.
type CategoryRenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryMoveRequest represents the arguments for category_move.
type CategoryMoveRequest struct {
	ID          string `json:"id"`
	NewParentID string `json:"new_parent_id,omitempty"`
}

// CategoryDeleteRequest represents the arguments for category_delete.
type CategoryDeleteRequest struct {
	ID string `json:"id"`
}

// SettingsUpdateRequest represents the arguments for settings_update.
type SettingsUpdateRequest struct {
	LLMBaseURL *string `json:"llm_base_url,omitempty"`
	LLMAPIKey  *string `json:"llm_api_key,omitempty"`
	LLMModel   *string `json:"llm_model,omitempty"`
}

// PressurePairRequest identifies one (seed, automation) pressure point.
type PressurePairRequest struct {
	SeedID       string `json:"seed_id"`
	AutomationID string `json:"automation_id"`
}

// PressureAmountRequest represents the arguments for pressure_add and
// pressure_set.
type PressureAmountRequest struct {
	SeedID       string  `json:"seed_id"`
	AutomationID string  `json:"automation_id"`
	Amount       float64 `json:"amount"`
}

// PressureResetRequest represents the arguments for pressure_reset.
type PressureResetRequest struct {
	SeedID       string `json:"seed_id,omitempty"`
	AutomationID string `json:"automation_id,omitempty"`
}

// PressureExceededRequest represents the arguments for pressure_exceeded.
type PressureExceededRequest struct {
	AutomationID string `json:"automation_id,omitempty"`
}

// QueueEnqueueRequest represents the arguments for queue_enqueue.
type QueueEnqueueRequest struct {
	AutomationID string `json:"automation_id"`
	SeedID       string `json:"seed_id"`
	Priority     int    `json:"priority,omitempty"`
}

// QueueSeedRequest represents the arguments for queue_enqueue_all.
type QueueSeedRequest struct {
	SeedID string `json:"seed_id"`
}

// QueueJobRequest identifies one job for queue_status and queue_remove.
type QueueJobRequest struct {
	AutomationID string `json:"automation_id"`
	SeedID       string `json:"seed_id"`
}

// Handler implementations

// HandleSeedStore handles the seed_store tool call.
func (h *Handlers) HandleSeedStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SeedStoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StoreSeed(ctx, h.env, ops.StoreSeedInput{
		UserID:      h.user,
		Title:       input.Title,
		Content:     input.Content,
		CategoryIDs: input.CategoryIDs,
		FollowUpAt:  input.FollowUpAt,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSeedFetch handles the seed_fetch tool call.
func (h *Handlers) HandleSeedFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SeedFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FetchSeed(ctx, h.env, ops.FetchSeedInput{
		ID:         input.ID,
		UserID:     h.user,
		IncludeLog: input.IncludeLog,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSeedList handles the seed_list tool call.
func (h *Handlers) HandleSeedList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SeedListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListSeeds(ctx, h.env, ops.ListSeedsInput{
		UserID: h.user,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSeedUpdate handles the seed_update tool call.
func (h *Handlers) HandleSeedUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SeedUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpdateSeed(ctx, h.env, ops.UpdateSeedInput{
		ID:                input.ID,
		UserID:            h.user,
		Title:             input.Title,
		Content:           input.Content,
		Note:              input.Note,
		Status:            input.Status,
		AddCategoryIDs:    input.AddCategoryIDs,
		RemoveCategoryIDs: input.RemoveCategoryIDs,
		FollowUpAt:        input.FollowUpAt,
		ResolveFollowUp:   input.ResolveFollowUp,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSeedDelete handles the seed_delete tool call.
func (h *Handlers) HandleSeedDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SeedDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteSeed(ctx, h.env, ops.DeleteSeedInput{
		ID:     input.ID,
		UserID: h.user,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCategoryCreate handles the category_create tool call.
func (h *Handlers) HandleCategoryCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateCategory(ctx, h.env, ops.CreateCategoryInput{
		UserID:   h.user,
		Name:     input.Name,
		ParentID: input.ParentID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCategoryRename handles the category_rename tool call.
func (h *Handlers) HandleCategoryRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryRenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RenameCategory(ctx, h.env, ops.RenameCategoryInput{
		ID:     input.ID,
		UserID: h.user,
		Name:   input.Name,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCategoryMove handles the category_move tool call.
func (h *Handlers) HandleCategoryMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryMoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.MoveCategory(ctx, h.env, ops.MoveCategoryInput{
		ID:          input.ID,
		UserID:      h.user,
		NewParentID: input.NewParentID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCategoryDelete handles the category_delete tool call.
func (h *Handlers) HandleCategoryDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoryDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteCategory(ctx, h.env, ops.DeleteCategoryInput{
		ID:     input.ID,
		UserID: h.user,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCategoryList handles the category_list tool call.
func (h *Handlers) HandleCategoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListCategories(ctx, h.env, ops.ListCategoriesInput{UserID: h.user})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.GetSettings(ctx, h.env, ops.GetSettingsInput{UserID: h.user})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSettingsUpdate handles the settings_update tool call.
func (h *Handlers) HandleSettingsUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpdateSettings(ctx, h.env, ops.UpdateSettingsInput{
		UserID:     h.user,
		LLMBaseURL: input.LLMBaseURL,
		LLMAPIKey:  input.LLMAPIKey,
		LLMModel:   input.LLMModel,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePressureGet handles the pressure_get tool call.
func (h *Handlers) HandlePressureGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PressurePairRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.SeedID == "" || input.AutomationID == "" {
		return errorResult(errors.NewInvalidRequest("seed_id and automation_id are required")), nil
	}

	point, ok, err := h.env.Pressure.Get(input.SeedID, input.AutomationID)
	if err != nil {
		return errorResult(err), nil
	}
	if !ok {
		// An absent row reads as zero pressure.
		return successResult(map[string]any{
			"seed_id":       input.SeedID,
			"automation_id": input.AutomationID,
			"amount":        0.0,
		})
	}

	return successResult(pointPayload(point))
}

// HandlePressureAdd handles the pressure_add tool call.
func (h *Handlers) HandlePressureAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PressureAmountRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.SeedID == "" || input.AutomationID == "" {
		return errorResult(errors.NewInvalidRequest("seed_id and automation_id are required")), nil
	}

	point, err := h.env.Pressure.Add(input.SeedID, input.AutomationID, input.Amount)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(pointPayload(point))
}

// HandlePressureSet handles the pressure_set tool call.
func (h *Handlers) HandlePressureSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PressureAmountRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.SeedID == "" || input.AutomationID == "" {
		return errorResult(errors.NewInvalidRequest("seed_id and automation_id are required")), nil
	}

	point, err := h.env.Pressure.Set(input.SeedID, input.AutomationID, input.Amount)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(pointPayload(point))
}

// HandlePressureReset handles the pressure_reset tool call. With both IDs it
// resets one pair; with only one it sweeps that seed or automation.
func (h *Handlers) HandlePressureReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PressureResetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	switch {
	case input.SeedID != "" && input.AutomationID != "":
		if err := h.env.Pressure.Reset(input.SeedID, input.AutomationID); err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{"reset": 1})
	case input.SeedID != "":
		n, err := h.env.Pressure.ResetAllForSeed(input.SeedID)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{"reset": n})
	case input.AutomationID != "":
		n, err := h.env.Pressure.ResetAllForAutomation(input.AutomationID)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{"reset": n})
	default:
		return errorResult(errors.NewInvalidRequest("seed_id or automation_id is required")), nil
	}
}

// HandlePressureExceeded handles the pressure_exceeded tool call.
func (h *Handlers) HandlePressureExceeded(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PressureExceededRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	points, err := h.env.Pressure.Exceeded(h.env.Registry, input.AutomationID)
	if err != nil {
		return errorResult(err), nil
	}

	payload := make([]map[string]any, len(points))
	for i := range points {
		payload[i] = pointPayload(&points[i])
	}
	return successResult(map[string]any{"points": payload})
}

// HandleQueueEnqueue handles the queue_enqueue tool call.
func (h *Handlers) HandleQueueEnqueue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QueueEnqueueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if _, ok := h.env.Registry.Get(input.AutomationID); !ok {
		return errorResult(errors.NewNotFound("automation", input.AutomationID)), nil
	}
	if err := h.env.Queue.Enqueue(input.AutomationID, input.SeedID, h.user, input.Priority); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"key": queue.JobKey(input.AutomationID, input.SeedID),
	})
}

// HandleQueueEnqueueAll handles the queue_enqueue_all tool call.
func (h *Handlers) HandleQueueEnqueueAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QueueSeedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n, err := h.env.Queue.EnqueueAllEnabled(h.env.Registry, input.SeedID, h.user)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"enqueued": n})
}

// HandleQueueStatus handles the queue_status tool call.
func (h *Handlers) HandleQueueStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QueueJobRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	key := queue.JobKey(input.AutomationID, input.SeedID)
	job, ok, err := h.env.Queue.Status(key)
	if err != nil {
		return errorResult(err), nil
	}
	if !ok {
		return errorResult(errors.NewNotFound("job", key)), nil
	}

	return successResult(map[string]any{
		"key":        job.Key,
		"state":      job.State,
		"priority":   job.Priority,
		"attempts":   job.Attempts,
		"last_error": job.LastError,
		"run_after":  job.RunAfter,
	})
}

// HandleQueueRemove handles the queue_remove tool call.
func (h *Handlers) HandleQueueRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QueueJobRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	key := queue.JobKey(input.AutomationID, input.SeedID)
	if err := h.env.Queue.Remove(key); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"removed": key})
}

// HandleSchedulerStart handles the scheduler_start tool call.
func (h *Handlers) HandleSchedulerStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.sched.Start()
	return successResult(map[string]any{"active": true})
}

// HandleSchedulerStop handles the scheduler_stop tool call.
func (h *Handlers) HandleSchedulerStop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.sched.Stop()
	return successResult(map[string]any{"active": false})
}

// HandleSchedulerStatus handles the scheduler_status tool call.
func (h *Handlers) HandleSchedulerStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"active": h.sched.IsActive()})
}

func pointPayload(p *pressure.Point) map[string]any {
	return map[string]any{
		"seed_id":       p.SeedID,
		"automation_id": p.AutomationID,
		"amount":        p.Amount,
		"updated_at":    p.UpdatedAt,
	}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if appErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
