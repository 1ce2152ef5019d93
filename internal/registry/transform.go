package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/garyjia/expense-admin/internal/domain/entity"
)

// UpdateRequest is the endpoint and body of an update
type UpdateRequest struct {
	Endpoint string
	Payload  map[string]any
}

// Transform reshapes an update for entities whose API deviates from
// {id, ...values} at PutURL(id)
type Transform func(cfg *ResourceConfig, id string, values map[string]any) (UpdateRequest, error)

var transforms = map[string]Transform{
	"office": officeTransform,
}

// LookupTransform returns the transform registered under name
func LookupTransform(name string) (Transform, bool) {
	t, ok := transforms[name]
	return t, ok
}

// BuildUpdate applies the config's transform, or the default shape
func BuildUpdate(cfg *ResourceConfig, id string, values map[string]any) (UpdateRequest, error) {
	if cfg.Transform != "" {
		t, ok := LookupTransform(cfg.Transform)
		if !ok {
			return UpdateRequest{}, fmt.Errorf("unknown payload transform %q", cfg.Transform)
		}
		return t(cfg, id, values)
	}
	return defaultUpdate(cfg, id, values), nil
}

func defaultUpdate(cfg *ResourceConfig, id string, values map[string]any) UpdateRequest {
	payload := make(map[string]any, len(values)+1)
	payload[cfg.IdentifierField()] = entity.FlexString(id)
	for k, v := range values {
		payload[k] = v
	}
	return UpdateRequest{Endpoint: cfg.PutURL(id), Payload: payload}
}

// officeIntegerFields must reach the office endpoint as integers
var officeIntegerFields = []string{
	"code",
	"receivingStaff",
	"accountStaff",
	"printingStaff",
	"qualityStaff",
	"deliveryStaff",
	"governorateId",
}

func officeTransform(_ *ResourceConfig, id string, values map[string]any) (UpdateRequest, error) {
	officeID, err := toInt(id)
	if err != nil {
		return UpdateRequest{}, fmt.Errorf("office id: %w", err)
	}

	payload := make(map[string]any, len(values)+1)
	payload["officeId"] = officeID
	for k, v := range values {
		payload[k] = v
	}
	for _, name := range officeIntegerFields {
		v, ok := values[name]
		if !ok {
			continue
		}
		n, err := toInt(v)
		if err != nil {
			return UpdateRequest{}, fmt.Errorf("%s: %w", name, err)
		}
		payload[name] = n
	}

	return UpdateRequest{
		Endpoint: expand("/api/office/{id}", id),
		Payload:  payload,
	}, nil
}

func toInt(v any) (int64, error) {
	s := strings.TrimSpace(entity.ScalarString(v))
	if s == "" {
		return 0, fmt.Errorf("missing integer")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}
