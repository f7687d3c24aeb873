// Package assistant exposes the buyer-facing shopping operations as MCP
// tools for the conversational agent that answers WhatsApp messages.
package assistant

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
)

const (
	ServerName    = "seller-assistant"
	ServerVersion = "1.0.0"
)

// TextSender delivers a WhatsApp text message. *whatsapp.Client satisfies it.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

type Deps struct {
	Service       *orders.Service
	SellerID      string // store served when a tool call names none
	Conversations *redisx.ConversationLog
	Sender        TextSender
}

type Server struct {
	mcp      *server.MCPServer
	deps     Deps
	handlers map[string]server.ToolHandlerFunc
}

func NewServer(deps Deps) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		deps:     deps,
		handlers: map[string]server.ToolHandlerFunc{},
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.add(checkBuyerProfileTool(), s.handleCheckBuyerProfile)
	s.add(createBuyerProfileTool(), s.handleCreateBuyerProfile)
	s.add(updateMyNameTool(), s.handleUpdateMyName)
	s.add(companyInformationTool(), s.handleCompanyInformation)
	s.add(browseProductsTool(), s.handleBrowseProducts)
	s.add(productDetailsTool(), s.handleProductDetails)
	s.add(calculatePriceTool(), s.handleCalculatePrice)
	s.add(addToCartTool(), s.handleAddToCart)
	s.add(viewCartTool(), s.handleViewCart)
	s.add(modifyCartItemTool(), s.handleModifyCartItem)
	s.add(emptyCartTool(), s.handleEmptyCart)
	s.add(createOrderTool(), s.handleCreateOrder)
	s.add(myOrdersTool(), s.handleMyOrders)
	s.add(requestCancellationTool(), s.handleRequestCancellation)
	if s.deps.Conversations != nil {
		s.add(conversationHistoryTool(), s.handleConversationHistory)
	}
	if s.deps.Sender != nil {
		s.add(sendReplyTool(), s.handleSendReply)
	}
}

func (s *Server) add(t mcp.Tool, h server.ToolHandlerFunc) {
	s.handlers[t.Name] = h
	s.mcp.AddTool(t, h)
}

// Call runs a registered tool directly, bypassing the transport.
func (s *Server) Call(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h, ok := s.handlers[name]
	if !ok {
		return mcp.NewToolResultError("Error: unknown tool " + name), nil
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return h(ctx, req)
}

// ToolNames lists the registered tools.
func (s *Server) ToolNames() []string {
	out := make([]string, 0, len(s.handlers))
	for n := range s.handlers {
		out = append(out, n)
	}
	return out
}

// Serve runs the server on stdio until the peer disconnects.
func (s *Server) Serve(ctx context.Context) error {
	log.Printf("[assistant] serving %d tools on stdio (seller=%s)", len(s.handlers), s.deps.SellerID)
	return server.ServeStdio(s.mcp)
}
