package models

import (
	"testing"
	"time"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"planner role", RolePlanner, true},
		{"technician role", RoleTechnician, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "invalid", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	planner := &User{Role: RolePlanner}
	technician := &User{Role: RoleTechnician}
	viewer := &User{Role: RoleViewer}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		// Admin permissions - should have all permissions
		{"admin can delete user", admin, "delete_user", true},
		{"admin can manage users", admin, "manage_users", true},
		{"admin can edit equipment", admin, "edit_equipment", true},
		{"admin can save work order", admin, "save_work_order", true},

		// Planner permissions - can do most things except user management
		{"planner cannot delete user", planner, "delete_user", false},
		{"planner cannot manage users", planner, "manage_users", false},
		{"planner can edit equipment", planner, "edit_equipment", true},
		{"planner can save work order", planner, "save_work_order", true},

		// Technician permissions - limited to operational tasks
		{"technician can save work order", technician, "save_work_order", true},
		{"technician can close work order", technician, "close_work_order", true},
		{"technician can create request", technician, "create_request", true},
		{"technician can adjust stock", technician, "adjust_stock", true},
		{"technician can view equipment", technician, "view_equipment", true},
		{"technician cannot edit equipment", technician, "edit_equipment", false},
		{"technician cannot delete user", technician, "delete_user", false},
		{"technician cannot manage users", technician, "manage_users", false},

		// Viewer permissions - read-only access
		{"viewer can view equipment", viewer, "view_equipment", true},
		{"viewer can view orders", viewer, "view_orders", true},
		{"viewer can view inventory", viewer, "view_inventory", true},
		{"viewer can view metrics", viewer, "view_metrics", true},
		{"viewer cannot save work order", viewer, "save_work_order", false},
		{"viewer cannot adjust stock", viewer, "adjust_stock", false},
		{"viewer cannot delete user", viewer, "delete_user", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}

func TestUser_StructFields(t *testing.T) {
	now := time.Now()
	user := &User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         RoleAdmin,
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if user.Username != "testuser" {
		t.Errorf("Expected Username to be 'testuser', got %s", user.Username)
	}
	if user.Role != RoleAdmin {
		t.Errorf("Expected Role to be RoleAdmin, got %s", user.Role)
	}
	if !user.IsActive {
		t.Errorf("Expected IsActive to be true, got %v", user.IsActive)
	}
	if user.LastLogin == nil {
		t.Errorf("Expected LastLogin to be set, got nil")
	}
}
