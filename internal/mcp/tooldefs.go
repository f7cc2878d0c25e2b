package mcp

import "github.com/mark3labs/mcp-go/mcp"

var seedStoreToolDef = mcp.NewTool("seed_store",
	mcp.WithDescription("Capture a new seed (idea note). Enqueues every enabled automation for it."),
	mcp.WithString("title", mcp.Description("Optional title")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body of the note")),
	mcp.WithArray("category_ids", mcp.Description("Category IDs to tag the seed with"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithNumber("follow_up_at", mcp.Description("Optional Unix timestamp for a follow-up")),
)

var seedFetchToolDef = mcp.NewTool("seed_fetch",
	mcp.WithDescription("Fetch one seed's current state by ID."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Seed ID")),
	mcp.WithBoolean("include_log", mcp.Description("Also return the raw transaction log")),
)

var seedListToolDef = mcp.NewTool("seed_list",
	mcp.WithDescription("List live seeds, newest first."),
	mcp.WithNumber("limit", mcp.Description("Page size, default 20, max 100")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var seedUpdateToolDef = mcp.NewTool("seed_update",
	mcp.WithDescription("Update a seed: title, content, notes, tags, follow-up, or status. Omitted fields are untouched."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Seed ID")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("content", mcp.Description("New content")),
	mcp.WithString("note", mcp.Description("Annotation to append")),
	mcp.WithString("status", mcp.Description("New status: active or archived")),
	mcp.WithArray("add_category_ids", mcp.Description("Categories to tag"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("remove_category_ids", mcp.Description("Categories to untag"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithNumber("follow_up_at", mcp.Description("Schedule a follow-up at this Unix timestamp")),
	mcp.WithBoolean("resolve_follow_up", mcp.Description("Clear the pending follow-up")),
)

var seedDeleteToolDef = mcp.NewTool("seed_delete",
	mcp.WithDescription("Soft-delete a seed and clean up its pressure rows and queued jobs."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Seed ID")),
)

var categoryCreateToolDef = mcp.NewTool("category_create",
	mcp.WithDescription("Create a category node, optionally under a parent."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Node name, must not contain '/'")),
	mcp.WithString("parent_id", mcp.Description("Parent node ID; empty creates a root node")),
)

var categoryRenameToolDef = mcp.NewTool("category_rename",
	mcp.WithDescription("Rename a category. Rewrites its subtree's paths and pressures affected seeds."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Category ID")),
	mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
)

var categoryMoveToolDef = mcp.NewTool("category_move",
	mcp.WithDescription("Move a category under a new parent. Rewrites its subtree's paths and pressures affected seeds."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Category ID")),
	mcp.WithString("new_parent_id", mcp.Description("New parent ID; empty moves to the root")),
)

var categoryDeleteToolDef = mcp.NewTool("category_delete",
	mcp.WithDescription("Delete a category. Children are promoted to its parent; tagged seeds are untagged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Category ID")),
)

var categoryListToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List the whole category tree ordered by path."),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Read the language-model settings. The API key is masked."),
)

var settingsUpdateToolDef = mcp.NewTool("settings_update",
	mcp.WithDescription("Update the language-model settings. Omitted fields are untouched; empty strings clear."),
	mcp.WithString("llm_base_url", mcp.Description("OpenAI-compatible endpoint base URL")),
	mcp.WithString("llm_api_key", mcp.Description("API key")),
	mcp.WithString("llm_model", mcp.Description("Model name")),
)

var pressureGetToolDef = mcp.NewTool("pressure_get",
	mcp.WithDescription("Read the pressure for one (seed, automation) pair."),
	mcp.WithString("seed_id", mcp.Required(), mcp.Description("Seed ID")),
	mcp.WithString("automation_id", mcp.Required(), mcp.Description("Automation ID")),
)

var pressureAddToolDef = mcp.NewTool("pressure_add",
	mcp.WithDescription("Accumulate pressure onto a pair. The result stays within 0-100."),
	mcp.WithString("seed_id", mcp.Required(), mcp.Description("Seed ID")),
	mcp.WithString("automation_id", mcp.Required(), mcp.Description("Automation ID")),
	mcp.WithNumber("amount", mcp.Required(), mcp.Description("Delta to add")),
)

var pressureSetToolDef = mcp.NewTool("pressure_set",
	mcp.WithDescription("Overwrite a pair's pressure, clamped to 0-100."),
	mcp.WithString("seed_id", mcp.Required(), mcp.Description("Seed ID")),
	mcp.WithString("automation_id", mcp.Required(), mcp.Description("Automation ID")),
	mcp.WithNumber("amount", mcp.Required(), mcp.Description("Value to set")),
)

var pressureResetToolDef = mcp.NewTool("pressure_reset",
	mcp.WithDescription("Reset pressure to zero for a pair, a whole seed, or a whole automation."),
	mcp.WithString("seed_id", mcp.Description("Seed ID")),
	mcp.WithString("automation_id", mcp.Description("Automation ID")),
)

var pressureExceededToolDef = mcp.NewTool("pressure_exceeded",
	mcp.WithDescription("List pressure points at or above their automation's threshold."),
	mcp.WithString("automation_id", mcp.Description("Narrow to one automation")),
)

var queueEnqueueToolDef = mcp.NewTool("queue_enqueue",
	mcp.WithDescription("Enqueue one automation job for a seed. A live job with the same key is never duplicated."),
	mcp.WithString("automation_id", mcp.Required(), mcp.Description("Automation ID")),
	mcp.WithString("seed_id", mcp.Required(), mcp.Description("Seed ID")),
	mcp.WithNumber("priority", mcp.Description("Higher runs first, default 0")),
)

var queueEnqueueAllToolDef = mcp.NewTool("queue_enqueue_all",
	mcp.WithDescription("Enqueue one job per enabled automation for a seed."),
	mcp.WithString("seed_id", mcp.Required(), mcp.Description("Seed ID")),
)

var queueStatusToolDef = mcp.NewTool("queue_status",
	mcp.WithDescription("Read a job's state by automation and seed."),
	mcp.WithString("automation_id", mcp.Required(), mcp.Description("Automation ID")),
	mcp.WithString("seed_id", mcp.Required(), mcp.Description("Seed ID")),
)

var queueRemoveToolDef = mcp.NewTool("queue_remove",
	mcp.WithDescription("Remove a job regardless of state."),
	mcp.WithString("automation_id", mcp.Required(), mcp.Description("Automation ID")),
	mcp.WithString("seed_id", mcp.Required(), mcp.Description("Seed ID")),
)

var schedulerStartToolDef = mcp.NewTool("scheduler_start",
	mcp.WithDescription("Start the evaluation scheduler."),
)

var schedulerStopToolDef = mcp.NewTool("scheduler_stop",
	mcp.WithDescription("Stop the evaluation scheduler, waiting for any in-flight pass."),
)

var schedulerStatusToolDef = mcp.NewTool("scheduler_status",
	mcp.WithDescription("Report whether the evaluation scheduler is running."),
)
