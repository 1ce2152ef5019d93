package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	for _, item := range r.Menu() {
		cfg, ok := r.Lookup(item.Path)
		require.True(t, ok, item.Path)
		assert.Equal(t, item.Path, cfg.Path)
	}
}

func TestValidate_MenuPathWithoutConfig(t *testing.T) {
	r, err := Parse([]byte(`
version: 1
menu:
  - {path: /admin/missing, label: Missing, icon: x}
resources: {}
`))
	require.NoError(t, err)

	err = r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"/admin/missing" has no resource config`)
}

func TestValidate_MalformedConfig(t *testing.T) {
	r, err := Parse([]byte(`
version: 1
resources:
  /admin/bad:
    getEndpoint: /api/Bad
    transform: nope
    formFields:
      - {name: a, label: A, type: colour}
      - {name: a, label: A2, type: text}
      - {name: b, label: B, type: dropdown}
`))
	require.NoError(t, err)

	err = r.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "postEndpoint is required")
	assert.Contains(t, msg, "at least one column")
	assert.Contains(t, msg, `unknown transform "nope"`)
	assert.Contains(t, msg, `unknown type "colour"`)
	assert.Contains(t, msg, `duplicate form field "a"`)
	assert.Contains(t, msg, "dropdown needs options")
}

func TestParse_RejectsUnknownVersion(t *testing.T) {
	_, err := Parse([]byte("version: 2\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrDefinitionNotFound)

	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 1
menu:
  - {path: /admin/colours, label: Colours, icon: paint}
resources:
  /admin/colours:
    getEndpoint: /api/Colour
    postEndpoint: /api/Colour
    putEndpoint: /api/Colour/{id}
    deleteEndpoint: /api/Colour/{id}
    columns:
      - {title: Name, dataIndex: name, key: name}
    formFields:
      - {name: name, label: Name}
`), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	cfg, ok := r.Lookup("/admin/colours")
	require.True(t, ok)
	assert.Equal(t, FieldText, cfg.FormFields[0].EffectiveType())

	_, ok = r.Lookup("/admin/add-office")
	assert.False(t, ok)
}

func TestEndpointExpansion(t *testing.T) {
	cfg := &ResourceConfig{PutEndpoint: "/api/Office/{id}", DeleteEndpoint: "/api/Office"}
	assert.Equal(t, "/api/Office/7", cfg.PutURL("7"))
	assert.Equal(t, "/api/Office/7", cfg.DeleteURL("7"))
	assert.Equal(t, "/api/Office/a%2Fb", cfg.PutURL("a/b"))
}

func TestBuildUpdate_Default(t *testing.T) {
	cfg := &ResourceConfig{PutEndpoint: "/api/ExpenseType/{id}"}

	req, err := BuildUpdate(cfg, "4", map[string]any{"name": "Fuel"})
	require.NoError(t, err)
	assert.Equal(t, "/api/ExpenseType/4", req.Endpoint)
	assert.Equal(t, "Fuel", req.Payload["name"])
	assert.EqualValues(t, "4", req.Payload["id"])
}

func TestBuildUpdate_Office(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	cfg, ok := r.Lookup("/admin/add-office")
	require.True(t, ok)

	req, err := BuildUpdate(cfg, "12", map[string]any{
		"name":           "Karkh",
		"code":           "301",
		"receivingStaff": "2",
		"accountStaff":   3,
		"printingStaff":  "1",
		"qualityStaff":   "0",
		"deliveryStaff":  "4",
		"governorateId":  "5",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/office/12", req.Endpoint)
	assert.Equal(t, int64(12), req.Payload["officeId"])
	assert.Equal(t, int64(301), req.Payload["code"])
	assert.Equal(t, int64(3), req.Payload["accountStaff"])
	assert.Equal(t, int64(5), req.Payload["governorateId"])
	assert.Equal(t, "Karkh", req.Payload["name"])
	assert.NotContains(t, req.Payload, "id")
}

func TestBuildUpdate_OfficeRejectsNonInteger(t *testing.T) {
	cfg := &ResourceConfig{Transform: "office"}
	_, err := BuildUpdate(cfg, "12", map[string]any{"code": "abc"})
	assert.Error(t, err)

	_, err = BuildUpdate(cfg, "x", map[string]any{})
	assert.Error(t, err)
}
