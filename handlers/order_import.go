package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bomtracker/services"
)

const maxUploadBytes = 32 << 20

// HandleOrderImportPreview parses the uploaded BOM files (one per tool
// variant), merges them and returns the consolidated preview. Purely
// computational; nothing is persisted until commit.
// Route: POST /orders/import
func HandleOrderImportPreview() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		boms, _, err := parseImportUpload(e)
		if err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		merged := services.MergeBOMs(boms)
		return e.JSON(http.StatusOK, merged)
	}
}

// HandleOrderImportCommit re-parses the uploaded files, merges them and
// persists the assembled order. The upload is self-contained: preview
// and commit take the same multipart body plus the order header fields.
// Route: POST /orders/import/commit
func HandleOrderImportCommit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		boms, mappings, err := parseImportUpload(e)
		if err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		merged := services.MergeBOMs(boms)
		if len(merged.LineItems) == 0 {
			return errorJSON(e, http.StatusBadRequest,
				"no leaf parts found in any uploaded file")
		}

		imported, err := services.AssembleOrder(app, services.OrderImportInput{
			OrderNumber: e.Request.FormValue("order_number"),
			Customer:    e.Request.FormValue("customer"),
			Merged:      merged,
			Mappings:    mappings,
		})
		if err != nil {
			log.Printf("order_import_commit: %v", err)
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		return e.JSON(http.StatusOK, imported)
	}
}

// parseImportUpload reads the multipart body shared by preview and
// commit: N files under "files" plus a "mappings" JSON field of
// tool_model -> tool_number assignments. A file that fails to parse
// aborts only that file; its warning travels with the result.
func parseImportUpload(e *core.RequestEvent) ([]*services.ParsedBOM, []services.ToolMapping, error) {
	if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, errors.New("file too large or invalid form data")
	}

	files := e.Request.MultipartForm.File["files"]
	if len(files) == 0 {
		return nil, nil, errors.New("please select at least one BOM file")
	}

	var boms []*services.ParsedBOM
	for _, fh := range files {
		bom, err := parseUploadedFile(fh)
		if err != nil {
			log.Printf("order_import: %s: %v", fh.Filename, err)
			bom = &services.ParsedBOM{
				ToolModel: fh.Filename,
				Warnings:  []string{fh.Filename + ": file could not be read"},
			}
		}
		boms = append(boms, bom)
	}

	var mappings []services.ToolMapping
	if raw := e.Request.FormValue("mappings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mappings); err != nil {
			return nil, nil, errors.New("invalid tool mappings")
		}
	}
	// Default: one tool per file, numbered by its model.
	if len(mappings) == 0 {
		for _, bom := range boms {
			mappings = append(mappings, services.ToolMapping{
				ToolModel:  bom.ToolModel,
				ToolNumber: bom.ToolModel,
			})
		}
	}

	return boms, mappings, nil
}

func parseUploadedFile(fh *multipart.FileHeader) (*services.ParsedBOM, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return services.ParseBOMUpload(f, fh.Filename)
}
