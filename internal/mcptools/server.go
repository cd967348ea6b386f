package mcptools

import (
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every date tool registered.
func New(d *skill.Dispatcher) *server.MCPServer {
	s := server.NewMCPServer(
		"datequiz",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	startTool := NewStartTool(d)
	s.AddTool(startTool.Definition(), startTool.Handle)

	answerTool := NewAnswerTool(d)
	s.AddTool(answerTool.Definition(), answerTool.Handle)

	for _, t := range []*SessionTool{NewRedoTool(d), NewFinishTool(d), NewStatusTool(d)} {
		s.AddTool(t.Definition(), t.Handle)
	}

	partnersTool := NewPartnersTool(d.Machine().Table())
	s.AddTool(partnersTool.Definition(), partnersTool.Handle)

	return s
}

const instructions = `You can play a dating quiz game.

1. Call date_partners to see who is available.
2. Call date_start with a session_id of your choice, a partner and a location.
3. Your date asks questions. Answer each one with date_answer, passing the
   question name and the answer.
4. date_redo takes back the last answer. date_status reports the points.
5. After the last question, call date_finish to hear how the date went.`
