package core

import (
	"errors"
	"testing"
)

func TestStatus_Constants(t *testing.T) {
	statuses := []Status{StatusNew, StatusDelivered}
	expected := []string{"NEW", "DELIVERED"}

	for i, s := range statuses {
		if string(s) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"NEW", StatusNew, false},
		{"delivered", StatusDelivered, false},
		{" new ", StatusNew, false},
		{"DONE", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q) error should be ErrInvalidStatus, got %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestStatus_Label(t *testing.T) {
	if StatusNew.Label() != "New" {
		t.Errorf("unexpected label %s", StatusNew.Label())
	}
	if StatusDelivered.Label() != "Delivered" {
		t.Errorf("unexpected label %s", StatusDelivered.Label())
	}
}

func TestOrder_IsValid(t *testing.T) {
	o := Order{SeatID: 1, ItemID: 2, Status: StatusNew}
	if !o.IsValid() {
		t.Error("expected valid order")
	}

	invalid := Order{SeatID: 1, ItemID: 2, Status: "PENDING"}
	if invalid.IsValid() {
		t.Error("expected invalid order for unknown status")
	}
}

func TestOrder_Location(t *testing.T) {
	o := Order{LabName: "Lab 3", SeatNumber: "A1"}
	if o.Location() != "Lab 3 - Seat A1" {
		t.Errorf("unexpected location %q", o.Location())
	}
}
