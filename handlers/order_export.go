package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bomtracker/services"
)

// HandleOrderExportExcel downloads the merged order as an xlsx workbook.
// Route: GET /orders/{id}/export/excel
func HandleOrderExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		orderID := e.Request.PathValue("id")

		data, err := services.BuildOrderExportData(app, orderID)
		if err != nil {
			return errorJSON(e, http.StatusNotFound, "order not found")
		}

		xlsxBytes, err := services.GenerateOrderExcel(data)
		if err != nil {
			log.Printf("order_export: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "something went wrong, please try again")
		}

		filename := fmt.Sprintf("Order_%s_%s.xlsx",
			data.OrderNumber, time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}
