package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", AccountRole: RoleHR}, time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "u1" || claims.AccountRole != RoleHR {
		t.Fatalf("claims lost: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected parse failure for expired token")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := CheckPassword(hash, "s3cret!"); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestPermissionCatalog(t *testing.T) {
	if !HasPermission(RoleEmployee, PermRequestsWrite) {
		t.Fatal("employees should submit requests")
	}
	if HasPermission(RoleEmployee, PermDirectoryWrite) {
		t.Fatal("employees must not write the directory")
	}
	if !HasPermission(RoleAdmin, PermSystemAdmin) {
		t.Fatal("admin should carry the system permission")
	}
	if HasPermission("unknown", PermDirectoryRead) {
		t.Fatal("unknown roles carry no permissions")
	}
}
