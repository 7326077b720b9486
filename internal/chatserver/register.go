package chatserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_alfred/internal/engine"
	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

// PortfolioChatInput is the input for portfolio_chat.
type PortfolioChatInput struct {
	Message   string `json:"message" jsonschema:"Visitor question about the portfolio owner (1-1000 characters)"`
	SessionID string `json:"session_id" jsonschema:"Conversation id (10-128 characters); reuse it to keep context between calls"`
}

// PortfolioChatOutput is the output for portfolio_chat.
type PortfolioChatOutput struct {
	Content     string `json:"content"`
	Mode        string `json:"mode"`
	ContextUsed bool   `json:"context_used"`
	Timestamp   string `json:"timestamp"`
}

// ClearHistoryInput is the input for portfolio_clear_history.
type ClearHistoryInput struct {
	SessionID string `json:"session_id" jsonschema:"Conversation id to forget"`
}

// ClearHistoryOutput is the output for portfolio_clear_history.
type ClearHistoryOutput struct {
	Message string `json:"message"`
}

// KnowledgeStatusInput is the (empty) input for portfolio_knowledge_status.
type KnowledgeStatusInput struct{}

// KnowledgeStatusOutput is the output for portfolio_knowledge_status.
type KnowledgeStatusOutput struct {
	Initialized     bool     `json:"initialized"`
	ResumeSource    string   `json:"resume_source,omitempty"`
	PortfolioSource string   `json:"portfolio_source,omitempty"`
	PortfolioURL    string   `json:"portfolio_url"`
	Mode            string   `json:"mode"`
	Skills          []string `json:"skills"`
	ProjectsCount   int      `json:"projects_count"`
	ExperienceCount int      `json:"experience_count"`
	LoadedAt        string   `json:"loaded_at,omitempty"`
}

// RegisterTools registers the portfolio chat tools on the given MCP server:
// portfolio_chat, portfolio_clear_history, portfolio_knowledge_status.
func (s *Server) RegisterTools(server *mcp.Server) {
	s.registerChat(server)
	s.registerClearHistory(server)
	s.registerKnowledgeStatus(server)
}

func (s *Server) registerChat(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "portfolio_chat",
		Description: "Ask the portfolio assistant a question about the owner's skills, projects and experience. Answers are short bullet lists grounded in the resume and portfolio site. Falls back to a heuristic answer when no LLM is available.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input PortfolioChatInput) (*mcp.CallToolResult, PortfolioChatOutput, error) {
		if err := toolutil.ValidateChat(input.Message, input.SessionID); err != nil {
			return nil, PortfolioChatOutput{}, err
		}
		reply, err := s.gen.ProcessMessage(ctx, input.Message, input.SessionID)
		if err != nil {
			return nil, PortfolioChatOutput{}, errors.New(GenericErrorMessage)
		}
		s.archive(input.SessionID, input.Message, reply)
		return nil, PortfolioChatOutput{
			Content:     reply.Content,
			Mode:        reply.Mode.String(),
			ContextUsed: reply.ContextUsed,
			Timestamp:   reply.Timestamp,
		}, nil
	})
}

func (s *Server) registerClearHistory(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "portfolio_clear_history",
		Description: "Forget the conversation history of one portfolio chat session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ClearHistoryInput) (*mcp.CallToolResult, ClearHistoryOutput, error) {
		if err := toolutil.ValidateSessionID(input.SessionID); err != nil {
			return nil, ClearHistoryOutput{}, err
		}
		if err := s.gen.ClearHistory(ctx, input.SessionID); err != nil {
			return nil, ClearHistoryOutput{}, err
		}
		return nil, ClearHistoryOutput{Message: "Conversation history cleared"}, nil
	})
}

func (s *Server) registerKnowledgeStatus(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "portfolio_knowledge_status",
		Description: "Report whether the portfolio knowledge base is loaded, where its resume and portfolio text came from, and the derived skills.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ KnowledgeStatusInput) (*mcp.CallToolResult, KnowledgeStatusOutput, error) {
		k := s.gen.Knowledge()
		st := k.Status()
		out := KnowledgeStatusOutput{
			Initialized:     st.Initialized,
			ResumeSource:    st.ResumeSource,
			PortfolioSource: st.PortfolioSource,
			PortfolioURL:    st.PortfolioURL,
			Mode:            s.gen.Mode().String(),
			Skills:          k.Facts().Skills,
			ProjectsCount:   st.ProjectsCount,
			ExperienceCount: st.ExperienceCount,
		}
		if !st.LoadedAt.IsZero() {
			out.LoadedAt = st.LoadedAt.UTC().Format(engine.TimestampFormat)
		}
		return nil, out, nil
	})
}
