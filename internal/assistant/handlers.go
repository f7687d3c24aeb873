package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
)

const badCoordinates = "Error: Invalid coordinates format. Please provide valid latitude and longitude numbers."

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func errorResult(format string, a ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + fmt.Sprintf(format, a...))
}

// failure turns a service error into a message the model can relay.
// Backend failures are logged and hidden.
func failure(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, orders.ErrProfileNotFound):
		return errorResult("No buyer profile found for this number. Please create a profile first.")
	case errors.Is(err, orders.ErrProfileExists):
		return errorResult("A profile already exists for this number.")
	case errors.Is(err, orders.ErrEmptyCart):
		return errorResult("Your cart is empty. Add products before placing an order.")
	case errors.Is(err, orders.ErrInvalidInput), errors.Is(err, orders.ErrNotFound):
		return errorResult("%s", err.Error())
	}
	log.Printf("[assistant] %s: %v", tool, err)
	return errorResult("Something went wrong, please try again in a moment.")
}

func (s *Server) seller(a args) string {
	if id := a.str("seller_id"); id != "" {
		return id
	}
	return s.deps.SellerID
}

func (s *Server) handleCheckBuyerProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	st, err := s.deps.Service.CheckBuyerProfile(ctx, phone)
	if err != nil {
		return failure("check_buyer_profile", err), nil
	}
	return jsonResult(st)
}

func (s *Server) handleCreateBuyerProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	name, err := a.required("name")
	if err != nil {
		return errorResult("%v", err), nil
	}
	b, err := s.deps.Service.CreateBuyerProfile(ctx, phone, name)
	if err != nil {
		return failure("create_buyer_profile", err), nil
	}
	return jsonResult(map[string]any{
		"phone_number": b.PhoneNumber,
		"name":         b.Name,
		"message":      fmt.Sprintf("Welcome %s! Your profile has been created.", b.Name),
	})
}

func (s *Server) handleUpdateMyName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	name, err := a.required("new_name")
	if err != nil {
		return errorResult("%v", err), nil
	}
	if err := s.deps.Service.UpdateBuyerName(ctx, phone, name); err != nil {
		return failure("update_my_name", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Your name has been updated to %s.", name)), nil
}

func (s *Server) handleCompanyInformation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.deps.Service.StoreInfo(ctx, s.seller(argsOf(req)))
	if err != nil {
		return failure("get_company_information", err), nil
	}
	return jsonResult(info)
}

func (s *Server) handleBrowseProducts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.deps.Service.BrowseProducts(ctx, s.seller(argsOf(req)))
	if err != nil {
		return failure("browse_products", err), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No products are available right now."), nil
	}
	return jsonResult(list)
}

func (s *Server) handleProductDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	id, err := a.integer("product_id")
	if err != nil {
		return errorResult("%v", err), nil
	}
	p, err := s.deps.Service.GetProduct(ctx, s.seller(a), id)
	if err != nil {
		return failure("get_product_details", err), nil
	}
	return jsonResult(p)
}

func (s *Server) handleCalculatePrice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	id, err := a.integer("product_id")
	if err != nil {
		return errorResult("%v", err), nil
	}
	qty, err := a.integer("quantity")
	if err != nil {
		return errorResult("%v", err), nil
	}
	q, err := s.deps.Service.CalculatePrice(ctx, s.seller(a), id, qty)
	if err != nil {
		return failure("calculate_price", err), nil
	}
	return jsonResult(q)
}

func (s *Server) handleAddToCart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	id, err := a.integer("product_id")
	if err != nil {
		return errorResult("%v", err), nil
	}
	qty, err := a.integer("quantity")
	if err != nil {
		return errorResult("%v", err), nil
	}
	cart, err := s.deps.Service.AddToCart(ctx, s.seller(a), phone, id, qty)
	if err != nil {
		return failure("add_product_to_cart", err), nil
	}
	name := ""
	for _, it := range cart.Items {
		if it.ProductID == id {
			name = it.ProductName
		}
	}
	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Added %d x %s to your cart.", qty, name),
		"cart":    cart,
	})
}

func (s *Server) handleViewCart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phone, err := argsOf(req).required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	v, err := s.deps.Service.ViewCart(ctx, phone)
	if err != nil {
		return failure("view_shopping_cart", err), nil
	}
	if v.Empty {
		return mcp.NewToolResultText("Your cart is empty."), nil
	}
	return jsonResult(v)
}

func (s *Server) handleModifyCartItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	id, err := a.integer("product_id")
	if err != nil {
		return errorResult("%v", err), nil
	}
	qty, err := a.integer("quantity")
	if err != nil {
		return errorResult("%v", err), nil
	}
	v, err := s.deps.Service.ModifyCartItem(ctx, phone, id, qty)
	if err != nil {
		return failure("modify_cart_item", err), nil
	}
	return jsonResult(v)
}

func (s *Server) handleEmptyCart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phone, err := argsOf(req).required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	if err := s.deps.Service.ClearCart(ctx, phone); err != nil {
		return failure("empty_shopping_cart", err), nil
	}
	return mcp.NewToolResultText("Your cart has been emptied."), nil
}

func (s *Server) handleCreateOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	addr, err := a.required("delivery_address")
	if err != nil {
		return errorResult("%v", err), nil
	}
	lat, errLat := a.number("delivery_latitude")
	lng, errLng := a.number("delivery_longitude")
	if errLat != nil || errLng != nil {
		return mcp.NewToolResultError(badCoordinates), nil
	}
	conf, err := s.deps.Service.PlaceOrder(ctx, orders.PlaceOrderInput{
		SellerID:        s.seller(a),
		BuyerPhone:      phone,
		DeliveryAddress: addr,
		DeliveryLat:     lat,
		DeliveryLng:     lng,
	})
	if err != nil {
		return failure("create_order", err), nil
	}
	return jsonResult(conf)
}

func (s *Server) handleMyOrders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phone, err := argsOf(req).required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	text, err := s.deps.Service.OrderHistory(ctx, phone)
	if err != nil {
		return failure("get_my_orders", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleRequestCancellation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := argsOf(req).integer("order_id")
	if err != nil {
		return errorResult("%v", err), nil
	}
	res, err := s.deps.Service.RequestCancellation(ctx, id)
	if err != nil {
		return failure("request_order_cancellation", err), nil
	}
	return jsonResult(res)
}

func (s *Server) handleConversationHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	n := redisx.ConversationWindow
	if _, ok := a["limit"]; ok {
		if n, err = a.integer("limit"); err != nil {
			return errorResult("%v", err), nil
		}
	}
	msgs, err := s.deps.Conversations.Recent(ctx, s.seller(a), phone, n)
	if err != nil {
		return failure("conversation_history", err), nil
	}
	return jsonResult(msgs)
}

func (s *Server) handleSendReply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := argsOf(req)
	phone, err := a.required("phone_number")
	if err != nil {
		return errorResult("%v", err), nil
	}
	text, err := a.required("text")
	if err != nil {
		return errorResult("%v", err), nil
	}
	if err := s.deps.Sender.SendText(ctx, phone, text); err != nil {
		log.Printf("[assistant] send_reply to %s: %v", phone, err)
		return errorResult("The message could not be delivered."), nil
	}
	if s.deps.Conversations != nil {
		m := redisx.Message{Role: "assistant", Text: text, At: time.Now().UTC()}
		if err := s.deps.Conversations.Append(ctx, s.seller(a), phone, m); err != nil {
			log.Printf("[assistant] record reply: %v", err)
		}
	}
	return mcp.NewToolResultText("Message sent."), nil
}
