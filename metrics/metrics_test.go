/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.GroupCreated()
	m.Join("ok")
	m.Start("ok")
	m.Reveal("ok")
	m.Conflict("join")
	m.Subscribed(1)
	m.Purged(3)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.GroupCreated()
	m.Join("duplicate_name")
	m.Subscribed(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"secretsanta_groups_created_total 1",
		`secretsanta_joins_total{result="duplicate_name"} 1`,
		"secretsanta_subscribers 2",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in output", want)
		}
	}
}
