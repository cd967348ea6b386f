// Package mcptools exposes the date quiz operations as MCP tools. Every tool
// routes through the same turn dispatcher the HTTP API uses, so a date can be
// played from an MCP client with identical scoring and persistence.
package mcptools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ashureev/datequiz/internal/content"
	"github.com/ashureev/datequiz/internal/quiz"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/mark3labs/mcp-go/mcp"
)

// turn runs a request and renders the narration as the tool result.
func turn(ctx context.Context, d *skill.Dispatcher, req skill.Request) *mcp.CallToolResult {
	resp := d.Handle(ctx, req)
	text := resp.Result.Narration.PlainText()
	if resp.Err != nil {
		return mcp.NewToolResultError(text)
	}
	if text == "" {
		text = "(nothing to say)"
	}
	return mcp.NewToolResultText(text)
}

func matched(value string) skill.Slot {
	return skill.Slot{Value: value, Status: skill.StatusMatch, Resolved: value}
}

func sessionArg(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	id := strings.TrimSpace(req.GetString("session_id", ""))
	if id == "" {
		return "", mcp.NewToolResultError("'session_id' is required")
	}
	return id, nil
}

// --- date_start ---

// StartTool handles the date_start MCP tool.
type StartTool struct {
	dispatcher *skill.Dispatcher
}

// NewStartTool creates a StartTool.
func NewStartTool(d *skill.Dispatcher) *StartTool {
	return &StartTool{dispatcher: d}
}

// Definition returns the MCP tool definition for registration.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("date_start",
		mcp.WithDescription(
			"Start a date with a partner at a location. "+
				"Use date_partners to list who is available and where. "+
				"Starting again while a date is in progress replaces it.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation id. Reuse it for every call of the same date."),
		),
		mcp.WithString("partner",
			mcp.Required(),
			mcp.Description("Partner name, e.g. 'Alex'"),
		),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Location name, e.g. 'cafe'"),
		),
		mcp.WithString("gender",
			mcp.Description("Optional gender preference"),
		),
	)
}

// Handle processes the date_start tool call.
func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := sessionArg(req)
	if errResult != nil {
		return errResult, nil
	}
	partner := req.GetString("partner", "")
	location := req.GetString("location", "")
	if partner == "" || location == "" {
		return mcp.NewToolResultError("'partner' and 'location' are required"), nil
	}

	slots := map[string]skill.Slot{
		skill.SlotPartner:  matched(partner),
		skill.SlotLocation: matched(location),
	}
	if g := req.GetString("gender", ""); g != "" {
		slots[skill.SlotGender] = matched(g)
	}
	return turn(ctx, t.dispatcher, skill.Request{
		SessionID: id,
		Name:      skill.OpGoOnDate,
		Slots:     slots,
	}), nil
}

// --- date_answer ---

// AnswerTool handles the date_answer MCP tool.
type AnswerTool struct {
	dispatcher *skill.Dispatcher
}

// NewAnswerTool creates an AnswerTool.
func NewAnswerTool(d *skill.Dispatcher) *AnswerTool {
	return &AnswerTool{dispatcher: d}
}

// Definition returns the MCP tool definition for registration.
func (t *AnswerTool) Definition() mcp.Tool {
	keys := make([]string, 0, len(quiz.Categories()))
	for _, c := range quiz.Categories() {
		keys = append(keys, c.Key)
	}
	return mcp.NewTool("date_answer",
		mcp.WithDescription(
			"Answer the question your date just asked. "+
				"The question must be the one currently pending, otherwise the date repeats it.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation id used with date_start"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question being answered: "+strings.Join(keys, ", ")),
		),
		mcp.WithString("answer",
			mcp.Description("The answer, e.g. 'blue'"),
		),
		mcp.WithNumber("number",
			mcp.Description("Numeric answer for numChildren"),
		),
	)
}

// Handle processes the date_answer tool call.
func (t *AnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := sessionArg(req)
	if errResult != nil {
		return errResult, nil
	}
	question := req.GetString("question", "")
	cat, ok := quiz.CategoryForKey(question)
	if !ok {
		cat, ok = quiz.CategoryForOperation(question)
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown question %q", question)), nil
	}

	r := skill.Request{SessionID: id, Name: cat.Operation}
	if cat.Extract == quiz.FromArgument {
		n := req.GetFloat("number", math.NaN())
		if math.IsNaN(n) {
			// Accept the number spelled in the answer field too.
			r.Arguments = map[string]any{cat.Slot: req.GetString("answer", "")}
		} else {
			r.Arguments = map[string]any{cat.Slot: n}
		}
	} else if answer := strings.TrimSpace(req.GetString("answer", "")); answer != "" {
		r.Slots = map[string]skill.Slot{cat.Slot: matched(strings.ToLower(answer))}
	}
	return turn(ctx, t.dispatcher, r), nil
}

// --- date_redo, date_finish, date_status ---

// SessionTool handles the tools that only need a session id.
type SessionTool struct {
	dispatcher  *skill.Dispatcher
	name        string
	operation   string
	description string
}

// NewRedoTool creates the date_redo tool.
func NewRedoTool(d *skill.Dispatcher) *SessionTool {
	return &SessionTool{
		dispatcher:  d,
		name:        "date_redo",
		operation:   skill.OpChangeAnswer,
		description: "Take back your last answer and hear the question again. Only one redo in a row is allowed.",
	}
}

// NewFinishTool creates the date_finish tool.
func NewFinishTool(d *skill.Dispatcher) *SessionTool {
	return &SessionTool{
		dispatcher:  d,
		name:        "date_finish",
		operation:   skill.OpFinishDate,
		description: "End the date and hear how it went. Refused until every question has been answered.",
	}
}

// NewStatusTool creates the date_status tool.
func NewStatusTool(d *skill.Dispatcher) *SessionTool {
	return &SessionTool{
		dispatcher:  d,
		name:        "date_status",
		operation:   skill.OpCheckStatus,
		description: "Report the current date points.",
	}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionTool) Definition() mcp.Tool {
	return mcp.NewTool(t.name,
		mcp.WithDescription(t.description),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation id used with date_start"),
		),
	)
}

// Handle processes the tool call.
func (t *SessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := sessionArg(req)
	if errResult != nil {
		return errResult, nil
	}
	return turn(ctx, t.dispatcher, skill.Request{SessionID: id, Name: t.operation}), nil
}

// --- date_partners ---

// PartnersTool handles the date_partners MCP tool.
type PartnersTool struct {
	table *content.Table
}

// NewPartnersTool creates a PartnersTool.
func NewPartnersTool(table *content.Table) *PartnersTool {
	return &PartnersTool{table: table}
}

// Definition returns the MCP tool definition for registration.
func (t *PartnersTool) Definition() mcp.Tool {
	return mcp.NewTool("date_partners",
		mcp.WithDescription("List the partners you can date and the locations each one knows."),
	)
}

// Handle processes the date_partners tool call.
func (t *PartnersTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("# Partners\n\n")
	for _, p := range t.table.Catalogue() {
		fmt.Fprintf(&sb, "- **%s**: %s\n", p.Name, strings.Join(p.Locations, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
