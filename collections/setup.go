package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the parts, part_relationships,
// sales_orders, tools and order_line_items collections exist.
func Setup(app *pocketbase.PocketBase) {
	parts := ensureCollection(app, "parts", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "part_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.TextField{Name: "type", Required: false})
		c.Fields.Add(&core.BoolField{Name: "is_assembly"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "part_relationships", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "parent",
			Required:      true,
			CollectionId:  parts.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "child",
			Required:      true,
			CollectionId:  parts.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "qty", Required: true})
	})

	orders := ensureCollection(app, "sales_orders", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "order_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "customer", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"open", "picking", "complete"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	tools := ensureCollection(app, "tools", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "order",
			Required:      true,
			CollectionId:  orders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "tool_model", Required: true})
		c.Fields.Add(&core.TextField{Name: "tool_number", Required: true})
	})

	ensureCollection(app, "order_line_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "order",
			Required:      true,
			CollectionId:  orders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "part",
			Required:      false,
			CollectionId:  parts.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "tools",
			Required:      false,
			CollectionId:  tools.Id,
			CascadeDelete: false,
			MaxSelect:     999,
		})
		c.Fields.Add(&core.TextField{Name: "part_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.TextField{Name: "assembly_group", Required: false})
		c.Fields.Add(&core.NumberField{Name: "qty_per_unit", Required: true})
		c.Fields.Add(&core.NumberField{Name: "total_qty_needed", Required: false})
		c.Fields.Add(&core.NumberField{Name: "qty_picked", Required: false})
		c.Fields.Add(&core.BoolField{Name: "is_shared"})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
