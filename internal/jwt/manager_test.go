package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	signed, claims, err := mgr.IssuePartyToken("driver-1", RoleDriver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims.Subject != "driver-1" || claims.Role != RoleDriver {
		t.Fatalf("claims: %+v", claims)
	}

	_, parsed, err := mgr.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Subject != "driver-1" || parsed.Role != RoleDriver {
		t.Fatalf("parsed claims: %+v", parsed)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	signed, _, err := NewManager("secret-a", time.Hour).IssuePartyToken("rider-1", RoleRider)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := NewManager("secret-b", time.Hour).ParseAndValidate(signed); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestRoleAllowed(t *testing.T) {
	claims := NewPartyClaims("rider-1", RoleRider, time.Hour)
	if err := RoleAllowed(claims, RoleRider, RoleAdmin); err != nil {
		t.Fatalf("rider should pass: %v", err)
	}
	if err := RoleAllowed(claims, RoleDriver); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("got %v, want ErrRoleForbidden", err)
	}
}

func TestValidateWSAuth(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)
	signed, _, err := mgr.IssuePartyToken("driver-1", RoleDriver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	frame := []byte(`{"type":"auth","token":"Bearer ` + signed + `"}`)
	res, err := ValidateWSAuth(frame, mgr, RoleDriver)
	if err != nil {
		t.Fatalf("ws auth: %v", err)
	}
	if res.Claims.Subject != "driver-1" {
		t.Fatalf("subject: %s", res.Claims.Subject)
	}

	if _, err := ValidateWSAuth([]byte(`{"type":"ping"}`), mgr, RoleDriver); !errors.Is(err, ErrBadAuthMsg) {
		t.Fatalf("got %v, want ErrBadAuthMsg", err)
	}
	if _, err := ValidateWSAuth([]byte(`{"type":"auth","token":"`+signed+`"}`), mgr, RoleDriver); !errors.Is(err, ErrBadTokenWrap) {
		t.Fatalf("got %v, want ErrBadTokenWrap", err)
	}
	if _, err := ValidateWSAuth(frame, mgr, RoleRider); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("got %v, want ErrRoleForbidden", err)
	}
}
