package domain

import "testing"

func TestStatusValidate(t *testing.T) {
	status := Status{
		ID:             "status-1",
		OrganizationID: "org-1",
		Name:           "in_progress",
		DisplayName:    "In Progress",
		Color:          "#3B82F6",
		OrderIndex:     2,
		IsActive:       true,
	}
	if err := status.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestStatusValidate_Color(t *testing.T) {
	cases := []struct {
		color string
		ok    bool
	}{
		{"", true},
		{"#10B981", true},
		{"#abcdef", true},
		{"10B981", false},
		{"#10B98", false},
		{"#10B98G", false},
		{"blue", false},
	}
	for _, tc := range cases {
		status := Status{
			ID:             "status-1",
			OrganizationID: "org-1",
			Name:           "done",
			DisplayName:    "Done",
			Color:          tc.color,
		}
		err := status.Validate()
		if tc.ok && err != nil {
			t.Fatalf("color %q: unexpected err=%v", tc.color, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("color %q: expected error", tc.color)
		}
	}
}

func TestStatusValidate_Missing(t *testing.T) {
	status := Status{ID: "status-1", OrganizationID: "org-1", DisplayName: "New"}
	if err := status.Validate(); err == nil {
		t.Fatalf("expected error for missing name")
	}
}
