package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"notice", TypeNotice, true},
		{"records loaded", TypeRecordsLoaded, true},
		{"status changed", TypeStatusChanged, true},
		{"user updated", TypeUserUpdated, true},
		{"unknown", Type("voucher.generated"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeRecordCreated, "lov", map[string]any{"path": "/admin/add-office"})

	if evt.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if evt.Type != TypeRecordCreated {
		t.Errorf("Event Type = %v, want %v", evt.Type, TypeRecordCreated)
	}
	if evt.GetPayloadString("path") != "/admin/add-office" {
		t.Errorf("payload path = %q", evt.GetPayloadString("path"))
	}
	if time.Since(evt.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
	if evt.IsNotice() {
		t.Error("record event should not be a notice")
	}
}

func TestNotices(t *testing.T) {
	ok := Success("expense", "sent")
	if !ok.IsNotice() || ok.Level != LevelSuccess || ok.Message != "sent" {
		t.Errorf("Success() = %+v", ok)
	}

	bad := Failure("expense", "failed")
	if bad.Level != LevelError || bad.Source != "expense" {
		t.Errorf("Failure() = %+v", bad)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeRecordDeleted, "lov", map[string]any{"id": "1"})
	updated := original.WithPayload("path", "/admin/add-office")

	if _, ok := original.Payload["path"]; ok {
		t.Error("WithPayload mutated the original event")
	}
	if updated.GetPayloadString("id") != "1" || updated.GetPayloadString("path") != "/admin/add-office" {
		t.Errorf("updated payload = %v", updated.Payload)
	}
	if updated.ID != original.ID {
		t.Error("WithPayload should keep the event ID")
	}
}
