// Package registry maps admin menu paths to the resource definitions the
// generic CRUD engine renders: columns, form fields, endpoints and an
// optional payload transform.
package registry

import (
	"net/url"
	"strings"

	"github.com/garyjia/expense-admin/internal/domain/entity"
)

// FieldType is the input kind of a form field
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldDropdown FieldType = "dropdown"
)

// IsValid reports whether t is a known field type
func (t FieldType) IsValid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldDropdown:
		return true
	default:
		return false
	}
}

// RenderKind names a cell formatter for a column
type RenderKind string

const (
	RenderNone   RenderKind = ""
	RenderDate   RenderKind = "date"
	RenderStatus RenderKind = "status"
	RenderAmount RenderKind = "amount"
)

// Column is one table column
type Column struct {
	Title     string     `yaml:"title" json:"title"`
	DataIndex string     `yaml:"dataIndex" json:"dataIndex"`
	Key       string     `yaml:"key" json:"key"`
	Render    RenderKind `yaml:"render,omitempty" json:"render,omitempty"`
}

// FormField is one input of the add/edit form. Every field is required.
type FormField struct {
	Name    string          `yaml:"name" json:"name"`
	Label   string          `yaml:"label" json:"label"`
	Type    FieldType       `yaml:"type" json:"type"`
	Options []entity.Option `yaml:"options,omitempty" json:"options,omitempty"`

	// OptionsEndpoint fills dropdown options from a {id,name} list at
	// selection time
	OptionsEndpoint string `yaml:"optionsEndpoint,omitempty" json:"optionsEndpoint,omitempty"`
}

// EffectiveType maps an empty type to text
func (f FormField) EffectiveType() FieldType {
	if f.Type == "" {
		return FieldText
	}
	return f.Type
}

// ResourceConfig describes one administrable entity
type ResourceConfig struct {
	Path           string      `yaml:"-" json:"path"`
	Label          string      `yaml:"label" json:"label"`
	Columns        []Column    `yaml:"columns" json:"columns"`
	FormFields     []FormField `yaml:"formFields" json:"formFields"`
	GetEndpoint    string      `yaml:"getEndpoint" json:"getEndpoint"`
	PostEndpoint   string      `yaml:"postEndpoint" json:"postEndpoint"`
	PutEndpoint    string      `yaml:"putEndpoint" json:"putEndpoint"`
	DeleteEndpoint string      `yaml:"deleteEndpoint" json:"deleteEndpoint"`
	IDField        string      `yaml:"idField,omitempty" json:"idField,omitempty"`
	Transform      string      `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// idPlaceholder is substituted in put and delete endpoint templates
const idPlaceholder = "{id}"

// PutURL returns the update endpoint for id
func (c *ResourceConfig) PutURL(id string) string {
	return expand(c.PutEndpoint, id)
}

// DeleteURL returns the delete endpoint for id
func (c *ResourceConfig) DeleteURL(id string) string {
	return expand(c.DeleteEndpoint, id)
}

// IdentifierField returns the field list rows are keyed by
func (c *ResourceConfig) IdentifierField() string {
	if c.IDField == "" {
		return entity.DefaultIDField
	}
	return c.IDField
}

// Field returns the form field called name
func (c *ResourceConfig) Field(name string) (FormField, bool) {
	for _, f := range c.FormFields {
		if f.Name == name {
			return f, true
		}
	}
	return FormField{}, false
}

func expand(template, id string) string {
	escaped := url.PathEscape(id)
	if strings.Contains(template, idPlaceholder) {
		return strings.ReplaceAll(template, idPlaceholder, escaped)
	}
	return strings.TrimRight(template, "/") + "/" + escaped
}
