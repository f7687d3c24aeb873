package assistant

import "github.com/mark3labs/mcp-go/mcp"

func prop(typ, desc string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": desc}
}

var (
	phoneProp  = prop("string", "The buyer's WhatsApp phone number, digits only with country code")
	sellerProp = prop("string", "Seller id; defaults to the store this assistant serves")
)

func tool(name, desc string, props map[string]interface{}, required ...string) mcp.Tool {
	if props == nil {
		props = map[string]interface{}{}
	}
	return mcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func checkBuyerProfileTool() mcp.Tool {
	return tool("check_buyer_profile",
		"Check if a buyer profile exists for a phone number. Call at the start of a conversation to recognise returning customers.",
		map[string]interface{}{"phone_number": phoneProp},
		"phone_number")
}

func createBuyerProfileTool() mcp.Tool {
	return tool("create_buyer_profile",
		"Create a buyer profile with phone number and name.",
		map[string]interface{}{
			"phone_number": phoneProp,
			"name":         prop("string", "The buyer's full name"),
		},
		"phone_number", "name")
}

func updateMyNameTool() mcp.Tool {
	return tool("update_my_name",
		"Update the buyer's name when they ask to change it.",
		map[string]interface{}{
			"phone_number": phoneProp,
			"new_name":     prop("string", "The new name"),
		},
		"phone_number", "new_name")
}

func companyInformationTool() mcp.Tool {
	return tool("get_company_information",
		"Get the store's name, description, contact details and address.",
		map[string]interface{}{"seller_id": sellerProp})
}

func browseProductsTool() mcp.Tool {
	return tool("browse_products",
		"List all products with id, title, description and price.",
		map[string]interface{}{"seller_id": sellerProp})
}

func productDetailsTool() mcp.Tool {
	return tool("get_product_details",
		"Get full details of one product by id.",
		map[string]interface{}{
			"product_id": prop("integer", "Product id, e.g. 1"),
			"seller_id":  sellerProp,
		},
		"product_id")
}

func calculatePriceTool() mcp.Tool {
	return tool("calculate_price",
		"Quote the total price for a quantity of one product.",
		map[string]interface{}{
			"product_id": prop("integer", "Product id"),
			"quantity":   prop("integer", "Units, at least 1"),
			"seller_id":  sellerProp,
		},
		"product_id", "quantity")
}

func addToCartTool() mcp.Tool {
	return tool("add_product_to_cart",
		"Add units of a product to the buyer's cart. Adding a product already in the cart increases its quantity.",
		map[string]interface{}{
			"phone_number": phoneProp,
			"product_id":   prop("integer", "Product id"),
			"quantity":     prop("integer", "Units to add, at least 1"),
			"seller_id":    sellerProp,
		},
		"phone_number", "product_id", "quantity")
}

func viewCartTool() mcp.Tool {
	return tool("view_shopping_cart",
		"Show the cart with quantities, prices and total. Use before checkout.",
		map[string]interface{}{"phone_number": phoneProp},
		"phone_number")
}

func modifyCartItemTool() mcp.Tool {
	return tool("modify_cart_item",
		"Set the quantity of a product already in the cart; 0 removes it.",
		map[string]interface{}{
			"phone_number": phoneProp,
			"product_id":   prop("integer", "Product id in the cart"),
			"quantity":     prop("integer", "New quantity, 0 to remove"),
		},
		"phone_number", "product_id", "quantity")
}

func emptyCartTool() mcp.Tool {
	return tool("empty_shopping_cart",
		"Remove every item from the cart.",
		map[string]interface{}{"phone_number": phoneProp},
		"phone_number")
}

func createOrderTool() mcp.Tool {
	return tool("create_order",
		"Place an order with everything in the cart. The cart must not be empty and is cleared afterwards.",
		map[string]interface{}{
			"phone_number":       phoneProp,
			"delivery_address":   prop("string", "Complete delivery address"),
			"delivery_latitude":  prop("number", "Latitude of the delivery location, e.g. 23.0225"),
			"delivery_longitude": prop("number", "Longitude of the delivery location, e.g. 72.5714"),
			"seller_id":          sellerProp,
		},
		"phone_number", "delivery_address", "delivery_latitude", "delivery_longitude")
}

func myOrdersTool() mcp.Tool {
	return tool("get_my_orders",
		"Get the buyer's order history with status and payment state.",
		map[string]interface{}{"phone_number": phoneProp},
		"phone_number")
}

func requestCancellationTool() mcp.Tool {
	return tool("request_order_cancellation",
		"Ask the seller to cancel an order. The seller approves or rejects it from the dashboard.",
		map[string]interface{}{"order_id": prop("integer", "The order id to cancel")},
		"order_id")
}

func conversationHistoryTool() mcp.Tool {
	return tool("conversation_history",
		"Get the most recent messages exchanged with the buyer, oldest first.",
		map[string]interface{}{
			"phone_number": phoneProp,
			"limit":        prop("integer", "How many messages, 1-10"),
		},
		"phone_number")
}

func sendReplyTool() mcp.Tool {
	return tool("send_reply",
		"Send a WhatsApp text message to the buyer.",
		map[string]interface{}{
			"phone_number": phoneProp,
			"text":         prop("string", "Message text"),
		},
		"phone_number", "text")
}
