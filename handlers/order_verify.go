package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bomtracker/services"
)

// HandleOrderVerify runs the structural verifier for one uploaded BOM
// file against the persisted catalog and returns the report as JSON.
// Route: POST /orders/{id}/verify
func HandleOrderVerify(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rep, status, err := runVerification(app, e)
		if err != nil {
			return errorJSON(e, status, err.Error())
		}
		return e.JSON(http.StatusOK, rep)
	}
}

// HandleVerifyReportDownload runs the verifier and returns the
// plain-text report as a download.
// Route: POST /orders/{id}/verify/report
func HandleVerifyReportDownload(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rep, status, err := runVerification(app, e)
		if err != nil {
			return errorJSON(e, status, err.Error())
		}

		filename := fmt.Sprintf("Verification_%s_%s.txt",
			rep.ToolModel, time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write([]byte(services.RenderReport(rep)))
		return nil
	}
}

// HandleVerifyReportPDF runs the verifier and returns the report as a
// PDF download.
// Route: POST /orders/{id}/verify/report.pdf
func HandleVerifyReportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rep, status, err := runVerification(app, e)
		if err != nil {
			return errorJSON(e, status, err.Error())
		}

		pdfBytes, err := services.GenerateVerificationPDF(rep)
		if err != nil {
			log.Printf("verify_report_pdf: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "something went wrong, please try again")
		}

		filename := fmt.Sprintf("Verification_%s_%s.pdf",
			rep.ToolModel, time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(pdfBytes)
		return nil
	}
}

// runVerification is the shared upload-and-verify step behind the three
// verify routes. On failure it returns the status code the caller
// should respond with.
func runVerification(app *pocketbase.PocketBase, e *core.RequestEvent) (*services.VerificationReport, int, error) {
	orderID := e.Request.PathValue("id")
	if _, err := app.FindRecordById("sales_orders", orderID); err != nil {
		return nil, http.StatusNotFound, errors.New("order not found")
	}

	if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, http.StatusBadRequest, errors.New("file too large or invalid form data")
	}
	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("please select a BOM file to verify")
	}
	defer file.Close()

	rep, err := services.VerifyBOMStructure(app, file, header.Filename, orderID)
	if err != nil {
		log.Printf("order_verify: %v", err)
		return nil, http.StatusBadRequest, err
	}
	return rep, 0, nil
}
