// Package schema owns the search_trends collection definition and the destructive
// provisioning sequence: probe, delete when present, create.
//
// The collection is treated as regenerable reference data. There is no diff or
// migration path; a present collection is always dropped with its records.
package schema

import "trendseed/cli/internal/backend"

// DefaultCollection is the name of the provisioned collection.
const DefaultCollection = "search_trends"

// Field names of the search_trends collection.
const (
	FieldMainCategory = "main_category"
	FieldSubCategory  = "sub_category"
	FieldQueries      = "queries"
)

// Options tune the generated definition.
type Options struct {
	// Name overrides DefaultCollection.
	Name string
	// OpenRules makes list, view, create, update and delete public.
	OpenRules bool
}

// SearchTrends returns the fixed collection definition.
func SearchTrends(opts Options) backend.Collection {
	name := opts.Name
	if name == "" {
		name = DefaultCollection
	}
	c := backend.Collection{
		Name: name,
		Type: backend.CollectionBase,
		Fields: []backend.Field{
			{Name: FieldMainCategory, Type: backend.FieldText, Required: true},
			{Name: FieldSubCategory, Type: backend.FieldText, Required: true},
			{Name: FieldQueries, Type: backend.FieldJSON, Required: false},
		},
	}
	if opts.OpenRules {
		public := ""
		c.ListRule = &public
		c.ViewRule = &public
		c.CreateRule = &public
		c.UpdateRule = &public
		c.DeleteRule = &public
	}
	return c
}
