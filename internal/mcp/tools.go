package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var loginToolDef = mcp.NewTool("auth_login",
	mcp.WithDescription("Authenticate with the triage backend and persist the session token locally"),
	mcp.WithString("email", mcp.Required(), mcp.Description("Account email")),
	mcp.WithString("password", mcp.Required(), mcp.Description("Account password")),
	mcp.WithString("captcha_token", mcp.Description("Captcha token, if the server demands one")),
)

var registerToolDef = mcp.NewTool("auth_register",
	mcp.WithDescription("Create a new account"),
	mcp.WithString("email", mcp.Required(), mcp.Description("Account email")),
	mcp.WithString("password", mcp.Required(), mcp.Description("Account password")),
	mcp.WithString("full_name", mcp.Description("Full name (optional)")),
	mcp.WithString("captcha_token", mcp.Description("Captcha token, if the server demands one")),
)

var logoutToolDef = mcp.NewTool("auth_logout",
	mcp.WithDescription("Discard the local session token"),
)

var whoamiToolDef = mcp.NewTool("auth_whoami",
	mcp.WithDescription("Show the authenticated account profile"),
)

var analyzeToolDef = mcp.NewTool("email_analyze",
	mcp.WithDescription("Classify an email into a category with a confidence score"),
	mcp.WithString("content", mcp.Required(), mcp.Description("Email body text")),
	mcp.WithString("subject", mcp.Description("Email subject (optional)")),
)

var listToolDef = mcp.NewTool("email_list",
	mcp.WithDescription("List analyzed emails; any filter switches to the search endpoint"),
	mcp.WithString("query", mcp.Description("Full-text search")),
	mcp.WithString("category", mcp.Description("Filter by category")),
	mcp.WithString("date_from", mcp.Description("Earliest date (YYYY-MM-DD)")),
	mcp.WithString("date_to", mcp.Description("Latest date (YYYY-MM-DD)")),
	mcp.WithNumber("min_confidence", mcp.Description("Minimum confidence score (0-100)")),
	mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
	mcp.WithNumber("page_size", mcp.Description("Results per page")),
)

var getToolDef = mcp.NewTool("email_get",
	mcp.WithDescription("Fetch one analyzed email by id"),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Email id")),
)

var deleteToolDef = mcp.NewTool("email_delete",
	mcp.WithDescription("Delete an analyzed email by id"),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Email id")),
)

var categoriesToolDef = mcp.NewTool("email_categories",
	mcp.WithDescription("List the categories the classifier can assign"),
)

var usageToolDef = mcp.NewTool("usage_summary",
	mcp.WithDescription("Show analysis quota usage"),
	mcp.WithBoolean("daily", mcp.Description("Include the per-day breakdown")),
)

var gmailStatusToolDef = mcp.NewTool("gmail_status",
	mcp.WithDescription("Show whether a Gmail account is connected"),
)

var gmailConnectToolDef = mcp.NewTool("gmail_connect",
	mcp.WithDescription("Get the OAuth consent URL for connecting Gmail"),
)

var gmailDisconnectToolDef = mcp.NewTool("gmail_disconnect",
	mcp.WithDescription("Revoke the Gmail connection"),
)

var healthToolDef = mcp.NewTool("health_check",
	mcp.WithDescription("Ping the triage backend"),
)

var historyToolDef = mcp.NewTool("history_recent",
	mcp.WithDescription("Show locally recorded analyses"),
	mcp.WithNumber("limit", mcp.Description("Max entries to return")),
	mcp.WithString("category", mcp.Description("Filter by category")),
)
