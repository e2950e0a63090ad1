package mcp

import "github.com/mark3labs/mcp-go/mcp"

var enqueueToolDef = mcp.NewTool(
	"action_enqueue",
	mcp.WithDescription("Queue a user action (submit_fact, vote, comment, save_fact) for delivery once the device is online. Returns the persisted action with its idempotency key."),
	mcp.WithString("type",
		mcp.Required(),
		mcp.Description("Action type: submit_fact, vote, comment, or save_fact"),
	),
	mcp.WithString("data",
		mcp.Description("JSON-encoded action payload, forwarded verbatim on sync"),
	),
)

var pendingToolDef = mcp.NewTool(
	"action_pending",
	mcp.WithDescription("List all queued actions in the order they will be synced."),
)

var syncNowToolDef = mcp.NewTool(
	"sync_now",
	mcp.WithDescription("Drain the pending action queue immediately. Failed actions stay queued for the next attempt."),
)

var syncStatusToolDef = mcp.NewTool(
	"sync_status",
	mcp.WithDescription("Report connectivity, durability mode, pending queue depth, and cached fact count."),
)

var cacheFactToolDef = mcp.NewTool(
	"fact_cache",
	mcp.WithDescription("Store a remotely-fetched fact snapshot in the local cache. Upserts by id; a repeat call replaces the prior snapshot."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Remote fact identifier"),
	),
	mcp.WithString("title",
		mcp.Description("Fact title"),
	),
	mcp.WithString("description",
		mcp.Description("Fact description"),
	),
	mcp.WithString("location_name",
		mcp.Description("Human-readable location name"),
	),
	mcp.WithString("category_id",
		mcp.Description("Category identifier"),
	),
	mcp.WithNumber("latitude",
		mcp.Description("Latitude in degrees; set together with longitude"),
	),
	mcp.WithNumber("longitude",
		mcp.Description("Longitude in degrees; set together with latitude"),
	),
	mcp.WithNumber("vote_count_up",
		mcp.Description("Upvote count at fetch time"),
	),
	mcp.WithNumber("created_at",
		mcp.Description("Remote creation time, milliseconds since epoch"),
	),
)

var searchToolDef = mcp.NewTool(
	"fact_search",
	mcp.WithDescription("Search the local fact cache without network access. Results are ranked by text relevance and popularity; a blank query returns nothing."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search text, matched against title, description, and location"),
	),
	mcp.WithArray("categories",
		mcp.Description("Restrict results to these category ids"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithNumber("latitude",
		mcp.Description("Geofence center latitude; requires longitude and radius_km"),
	),
	mcp.WithNumber("longitude",
		mcp.Description("Geofence center longitude; requires latitude and radius_km"),
	),
	mcp.WithNumber("radius_km",
		mcp.Description("Geofence radius in kilometers, inclusive"),
	),
)

var featuredToolDef = mcp.NewTool(
	"fact_featured",
	mcp.WithDescription("List the top cached facts by vote count."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results (default: configured feature_limit)"),
	),
)

var recentToolDef = mcp.NewTool(
	"fact_recent",
	mcp.WithDescription("List the most recently created cached facts."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results (default: configured feature_limit)"),
	),
)
