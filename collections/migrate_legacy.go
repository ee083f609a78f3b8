package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
)

// MigrateLegacyAssemblyGroups finds order line items that carry only the
// legacy free-text assembly label (no structured part link) and links
// them to a catalog part where an exact part-number match exists.
// Safe to call on every startup -- returns early if nothing to migrate.
func MigrateLegacyAssemblyGroups(app *pocketbase.PocketBase) error {
	itemsCol, err := app.FindCollectionByNameOrId("order_line_items")
	if err != nil {
		return fmt.Errorf("migrate: could not find order_line_items collection: %w", err)
	}

	partsCol, err := app.FindCollectionByNameOrId("parts")
	if err != nil {
		return fmt.Errorf("migrate: could not find parts collection: %w", err)
	}

	legacyItems, err := app.FindRecordsByFilter(
		itemsCol,
		"part = '' && part_number != ''",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query legacy line items: %w", err)
	}

	if len(legacyItems) == 0 {
		return nil
	}

	log.Printf("migrate: found %d line item(s) without a part link -- resolving against catalog...\n", len(legacyItems))

	linked := 0
	for _, item := range legacyItems {
		pn := item.GetString("part_number")

		part, err := app.FindFirstRecordByFilter(partsCol,
			"part_number = {:pn}", map[string]any{"pn": pn})
		if err != nil || part == nil {
			// No catalog match; the verifier will keep reporting it as
			// legacy text-only until the part is created.
			continue
		}

		item.Set("part", part.Id)
		if err := app.Save(item); err != nil {
			log.Printf("migrate: failed to link line item %s to part %s: %v\n", item.Id, part.Id, err)
			continue
		}
		linked++
	}

	log.Printf("migrate: legacy assembly migration complete, %d item(s) linked.\n", linked)
	return nil
}
