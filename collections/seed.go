package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type partDef struct {
	partNumber  string
	description string
	partType    string
	isAssembly  bool
}

type relationshipDef struct {
	parentPN string
	childPN  string
	qty      float64
}

// seedParts is a small starter catalog so a fresh install has something
// to verify imports against. Real catalogs grow through BOM imports.
var seedParts = []partDef{
	{"TL-1000", "Base tool frame assembly", "Make", true},
	{"FR-0100", "Frame weldment", "Make", true},
	{"BL-M8X30", "Hex bolt M8x30", "Buy", false},
	{"NT-M8", "Hex nut M8", "Buy", false},
	{"WS-M8", "Washer M8", "Buy", false},
	{"PL-0042", "Mounting plate", "Buy", false},
}

var seedRelationships = []relationshipDef{
	{"TL-1000", "FR-0100", 1},
	{"FR-0100", "BL-M8X30", 8},
	{"FR-0100", "NT-M8", 8},
	{"FR-0100", "WS-M8", 16},
	{"FR-0100", "PL-0042", 2},
}

// Seed inserts the starter catalog if the parts collection is empty.
// Running it against a populated database is a no-op.
func Seed(app *pocketbase.PocketBase) error {
	partsCol, err := app.FindCollectionByNameOrId("parts")
	if err != nil {
		return fmt.Errorf("seed: parts collection not found: %w", err)
	}

	existing, err := app.FindRecordsByFilter(partsCol, "part_number != ''", "", 1, 0)
	if err != nil {
		return fmt.Errorf("seed: query parts: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	log.Println("seed: parts collection is empty, inserting starter catalog...")

	idByPN := make(map[string]string, len(seedParts))
	for _, def := range seedParts {
		record := core.NewRecord(partsCol)
		record.Set("part_number", def.partNumber)
		record.Set("description", def.description)
		record.Set("type", def.partType)
		record.Set("is_assembly", def.isAssembly)
		if err := app.Save(record); err != nil {
			return fmt.Errorf("seed: create part %s: %w", def.partNumber, err)
		}
		idByPN[def.partNumber] = record.Id
	}

	relCol, err := app.FindCollectionByNameOrId("part_relationships")
	if err != nil {
		return fmt.Errorf("seed: part_relationships collection not found: %w", err)
	}
	for _, def := range seedRelationships {
		record := core.NewRecord(relCol)
		record.Set("parent", idByPN[def.parentPN])
		record.Set("child", idByPN[def.childPN])
		record.Set("qty", def.qty)
		if err := app.Save(record); err != nil {
			return fmt.Errorf("seed: create relationship %s -> %s: %w", def.parentPN, def.childPN, err)
		}
	}

	log.Printf("seed: inserted %d parts and %d relationships.\n", len(seedParts), len(seedRelationships))
	return nil
}
