// Package export renders seller data as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderHeaders = []string{
	"Order ID", "Created At", "Buyer Name", "Buyer Phone", "Items", "Total Amount",
	"Payment Status", "Order Status", "Delivery Address", "Payment Link ID", "Razorpay Payment ID",
}

// OrdersWorkbook builds one "Orders" sheet with a header row and one row
// per order, in the order given.
func OrdersWorkbook(list []orders.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range orderHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range list {
		row := sheet.AddRow()
		row.AddCell().SetInt(o.OrderID)
		created := ""
		if !o.CreatedAt.IsZero() {
			created = o.CreatedAt.Format("2006-01-02 15:04:05")
		}
		row.AddCell().SetString(created)
		row.AddCell().SetString(o.BuyerName)
		row.AddCell().SetString(o.BuyerPhone)
		row.AddCell().SetString(o.ItemsSummary())
		total, _ := o.TotalAmount.Float64()
		row.AddCell().SetFloatWithFormat(total, "#,##0.00")
		row.AddCell().SetString(string(o.PaymentStatus))
		row.AddCell().SetString(string(o.OrderStatus))
		row.AddCell().SetString(o.DeliveryAddress)
		row.AddCell().SetString(o.PaymentLinkID)
		row.AddCell().SetString(o.RazorpayPaymentID)
	}
	return file, nil
}

func WriteOrders(w io.Writer, list []orders.Order) error {
	file, err := OrdersWorkbook(list)
	if err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
