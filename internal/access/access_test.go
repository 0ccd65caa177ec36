package access

import (
	"errors"
	"testing"

	"custody-ledger/internal/domain"
)

func TestController_Require(t *testing.T) {
	ctrl := NewController("admin")

	if err := ctrl.Require("admin"); err != nil {
		t.Errorf("administrator should pass: %v", err)
	}

	err := ctrl.Require("mallory")
	if !errors.Is(err, domain.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized, got %v", err)
	}

	err = ctrl.Require("")
	if !errors.Is(err, domain.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized for empty caller, got %v", err)
	}
}

func TestController_Admin(t *testing.T) {
	ctrl := NewController("admin")
	if ctrl.Admin() != "admin" {
		t.Errorf("Admin mismatch: got %s", ctrl.Admin())
	}
}
