package model

import "testing"

func TestRoleRank(t *testing.T) {
	tests := []struct {
		role     Role
		expected int
	}{
		{RoleOwner, 6},
		{RoleAdmin, 5},
		{RoleManager, 3},
		{RoleStaff, 2},
		{RoleBuilder, 2}, // ties with staff
		{RoleUser, 1},
		{Role("unknown"), 0},
		{Role(""), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Rank(); got != tt.expected {
				t.Errorf("Rank(%q) = %d, want %d", tt.role, got, tt.expected)
			}
		})
	}
}

func TestCanAccessAdmin(t *testing.T) {
	// The predicate must agree with the rank comparison for every role.
	for _, r := range AllRoles {
		want := r.Rank() >= RoleStaff.Rank()
		if got := r.CanAccessAdmin(); got != want {
			t.Errorf("CanAccessAdmin(%q) = %v, want %v", r, got, want)
		}
	}
	if Role("visitor").CanAccessAdmin() {
		t.Error("unknown role must not access admin console")
	}
}

func TestCapabilityPredicates(t *testing.T) {
	tests := []struct {
		role        Role
		admin       bool
		review      bool
		manageRoles bool
		settings    bool
		deleteUsers bool
	}{
		{RoleOwner, true, true, true, true, true},
		{RoleAdmin, true, true, true, true, false},
		{RoleManager, true, true, false, false, false},
		{RoleStaff, true, false, false, false, false},
		{RoleBuilder, true, false, false, false, false},
		{RoleUser, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.CanAccessAdmin(); got != tt.admin {
				t.Errorf("CanAccessAdmin = %v, want %v", got, tt.admin)
			}
			if got := tt.role.CanReviewApplications(); got != tt.review {
				t.Errorf("CanReviewApplications = %v, want %v", got, tt.review)
			}
			if got := tt.role.CanManageRoles(); got != tt.manageRoles {
				t.Errorf("CanManageRoles = %v, want %v", got, tt.manageRoles)
			}
			if got := tt.role.CanManageSettings(); got != tt.settings {
				t.Errorf("CanManageSettings = %v, want %v", got, tt.settings)
			}
			if got := tt.role.CanDeleteAccounts(); got != tt.deleteUsers {
				t.Errorf("CanDeleteAccounts = %v, want %v", got, tt.deleteUsers)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range AllRoles {
		if !r.Valid() {
			t.Errorf("Valid(%q) = false, want true", r)
		}
	}
	for _, r := range []Role{"", "superadmin", "Owner"} {
		if r.Valid() {
			t.Errorf("Valid(%q) = true, want false", r)
		}
	}
}

func TestIntakeAccepting(t *testing.T) {
	tests := []struct {
		status    IntakeStatus
		accepting bool
	}{
		{IntakeOpen, true},
		{IntakeEndingSoon, true},
		{IntakeClosed, false},
		{IntakeComingSoon, false},
	}

	for _, tt := range tests {
		if got := tt.status.Accepting(); got != tt.accepting {
			t.Errorf("Accepting(%q) = %v, want %v", tt.status, got, tt.accepting)
		}
	}
}

func TestApplicationStatusValid(t *testing.T) {
	for _, s := range ApplicationStatuses {
		if !s.Valid() {
			t.Errorf("Valid(%q) = false, want true", s)
		}
	}
	if ApplicationStatus("accepted").Valid() {
		t.Error("unknown status must be invalid")
	}
}
