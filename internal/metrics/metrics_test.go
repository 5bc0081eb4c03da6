package metrics

import "testing"

func TestObserveBucketsByStatusClass(t *testing.T) {
	c := New()
	c.Observe(200)
	c.Observe(201)
	c.Observe(404)
	c.Observe(500)

	snap := c.Snapshot()
	if snap.RequestsTotal != 4 {
		t.Fatalf("requests total = %d, want 4", snap.RequestsTotal)
	}
	if snap.Requests2xx != 2 {
		t.Fatalf("2xx = %d, want 2", snap.Requests2xx)
	}
	if snap.Requests4xx != 1 {
		t.Fatalf("4xx = %d, want 1", snap.Requests4xx)
	}
	if snap.Requests5xx != 1 {
		t.Fatalf("5xx = %d, want 1", snap.Requests5xx)
	}
}
