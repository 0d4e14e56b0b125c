/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package device

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newJar(t *testing.T, secret string) *Jar {
	t.Helper()

	jar, err := NewJar([]byte(secret), "/", false)
	if err != nil {
		t.Fatalf("NewJar failed: %v", err)
	}
	return jar
}

func roundTrip(t *testing.T, save, load *Jar, mem Memory) Memory {
	t.Helper()

	rec := httptest.NewRecorder()
	if err := save.Save(rec, mem); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	return load.Load(req)
}

func TestJar_RoundTrip(t *testing.T) {
	jar := newJar(t, strings.Repeat("s", 32))

	mem := Memory{}
	mem.Remember("ABC123", Entry{Name: "Alice", AdminToken: "tok"})
	mem.Remember("ABC123", Entry{Name: ""})

	got := roundTrip(t, jar, jar, mem)

	e, ok := got["ABC123"]
	if !ok {
		t.Fatal("expected entry for ABC123")
	}
	if e.Name != "Alice" || e.AdminToken != "tok" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestJar_TamperedCookie(t *testing.T) {
	mem := Memory{}
	mem.Remember("ABC123", Entry{Name: "Alice"})

	got := roundTrip(t, newJar(t, strings.Repeat("a", 32)), newJar(t, strings.Repeat("b", 32)), mem)
	if len(got) != 0 {
		t.Errorf("cookie from another secret must be ignored, got %v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	if got := newJar(t, strings.Repeat("a", 32)).Load(req); len(got) != 0 {
		t.Errorf("garbage cookie must be ignored, got %v", got)
	}
}

func TestMemory_Prune(t *testing.T) {
	mem := Memory{}
	for i := 0; i < maxGroups+5; i++ {
		mem[fmt.Sprintf("G%05d", i)] = Entry{Name: "x", Seen: int64(i)}
	}

	mem.prune(maxGroups)

	if len(mem) != maxGroups {
		t.Fatalf("expected %d entries, got %d", maxGroups, len(mem))
	}
	if _, ok := mem["G00000"]; ok {
		t.Error("oldest entry should have been pruned")
	}
	if _, ok := mem[fmt.Sprintf("G%05d", maxGroups+4)]; !ok {
		t.Error("newest entry should have been kept")
	}
}
