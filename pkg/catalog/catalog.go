package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RiskLevel classifies how dangerous an action is when misused.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Definition is one entry of the static action catalog. It is reference data:
// the permission service and the executor consult it, nothing mutates it.
type Definition struct {
	ID          string    `yaml:"id" json:"id"`
	Category    string    `yaml:"category" json:"category"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Risk        RiskLevel `yaml:"risk" json:"risk"`
	// ConfirmationRequired forces user confirmation regardless of grant flags.
	ConfirmationRequired bool `yaml:"confirmation_required" json:"confirmation_required"`
}

// Catalog is the immutable, process-wide set of action definitions.
type Catalog struct {
	byID    map[string]Definition
	ordered []Definition
}

// New builds a catalog from definitions. Later duplicates override earlier ones.
func New(defs []Definition) *Catalog {
	c := &Catalog{byID: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if _, seen := c.byID[d.ID]; !seen {
			c.ordered = append(c.ordered, d)
		}
		c.byID[d.ID] = d
	}
	return c
}

// Default returns the built-in action set.
func Default() *Catalog {
	return New(defaultDefinitions)
}

// LoadFile reads a YAML action catalog, replacing the built-in set.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no definitions", path)
	}
	for _, d := range defs {
		if d.ID == "" || d.Category == "" {
			return nil, fmt.Errorf("catalog entry missing id or category: %+v", d)
		}
	}
	return New(defs), nil
}

// Get looks up one definition by action id.
func (c *Catalog) Get(id string) (Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// List returns all definitions in declaration order.
func (c *Catalog) List() []Definition {
	out := make([]Definition, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Categories returns the distinct category names in declaration order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.ordered {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	return out
}

var defaultDefinitions = []Definition{
	{
		ID:          "create_project",
		Category:    "entity_management",
		Name:        "Create project",
		Description: "Create a new project record on the user's account",
		Risk:        RiskLow,
	},
	{
		ID:          "update_project",
		Category:    "entity_management",
		Name:        "Update project",
		Description: "Update fields on an existing project",
		Risk:        RiskLow,
	},
	{
		ID:                   "delete_project",
		Category:             "entity_management",
		Name:                 "Delete project",
		Description:          "Delete a project and its metadata",
		Risk:                 RiskHigh,
		ConfirmationRequired: true,
	},
	{
		ID:          "create_product",
		Category:    "entity_management",
		Name:        "Create product",
		Description: "Create a new product record on the user's account",
		Risk:        RiskLow,
	},
	{
		ID:          "update_product",
		Category:    "entity_management",
		Name:        "Update product",
		Description: "Update fields on an existing product",
		Risk:        RiskLow,
	},
	{
		ID:                   "delete_product",
		Category:             "entity_management",
		Name:                 "Delete product",
		Description:          "Delete a product record",
		Risk:                 RiskHigh,
		ConfirmationRequired: true,
	},
	{
		ID:                   "send_payment",
		Category:             "payments",
		Name:                 "Send payment",
		Description:          "Send a payment on the user's behalf",
		Risk:                 RiskHigh,
		ConfirmationRequired: true,
	},
	{
		ID:                   "refund_payment",
		Category:             "payments",
		Name:                 "Refund payment",
		Description:          "Refund a previously captured payment",
		Risk:                 RiskHigh,
		ConfirmationRequired: true,
	},
}
