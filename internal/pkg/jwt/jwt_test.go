package jwt

import (
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	SetSecret("test-secret")
	token, err := Sign("owner", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "owner" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	SetSecret("test-secret")
	expired, err := Sign("owner", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	SetSecret("other-secret")
	foreign, err := Sign("owner", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	SetSecret("test-secret")

	for name, token := range map[string]string{"expired": expired, "wrong secret": foreign, "garbage": "a.b.c"} {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(token); err == nil {
				t.Error("expected error")
			}
		})
	}
}
