package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bomtracker/collections"
	"bomtracker/handlers"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateLegacyAssemblyGroups(app); err != nil {
			log.Printf("Warning: legacy line item migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Order import ─────────────────────────────────────────
		se.Router.POST("/orders/import", handlers.HandleOrderImportPreview())
		se.Router.POST("/orders/import/commit", handlers.HandleOrderImportCommit(app))

		// ── Order export ─────────────────────────────────────────
		se.Router.GET("/orders/{id}/export/excel", handlers.HandleOrderExportExcel(app))

		// ── Structure verification ───────────────────────────────
		se.Router.POST("/orders/{id}/verify", handlers.HandleOrderVerify(app))
		se.Router.POST("/orders/{id}/verify/report", handlers.HandleVerifyReportDownload(app))
		se.Router.POST("/orders/{id}/verify/report.pdf", handlers.HandleVerifyReportPDF(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
