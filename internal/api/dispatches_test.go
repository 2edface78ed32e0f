package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListDispatches(t *testing.T) {
	srv := newTestServer(t)
	runDispatch(t, srv, "alpha", 50)
	runDispatch(t, srv, "alpha", 10)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/dispatches")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body listDispatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body.Total != 2 {
		t.Errorf("total = %d, want 2", body.Total)
	}
	if len(body.Dispatches) != 2 {
		t.Fatalf("dispatches = %d, want 2", len(body.Dispatches))
	}

	items := map[int]bool{}
	for _, d := range body.Dispatches {
		if d.Arena != "alpha" {
			t.Errorf("arena = %q, want alpha", d.Arena)
		}
		items[d.Items] = true
	}
	if !items[50] || !items[10] {
		t.Errorf("dispatch item counts = %v, want {50, 10}", items)
	}
}

func TestListDispatchesClampsLimit(t *testing.T) {
	srv := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/dispatches?limit=9999&offset=-3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body listDispatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Limit != defaultListLimit {
		t.Errorf("limit = %d, want clamped to %d", body.Limit, defaultListLimit)
	}
	if body.Offset != 0 {
		t.Errorf("offset = %d, want clamped to 0", body.Offset)
	}
}

func TestGetDispatchRecords(t *testing.T) {
	srv := newTestServer(t)
	runDispatch(t, srv, "alpha", 25)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Find the persisted dispatch first.
	resp, err := http.Get(ts.URL + "/v1/dispatches")
	if err != nil {
		t.Fatalf("GET dispatches: %v", err)
	}
	var list listDispatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(list.Dispatches) != 1 {
		t.Fatalf("dispatches = %d, want 1", len(list.Dispatches))
	}
	id := list.Dispatches[0].ID

	resp, err = http.Get(ts.URL + "/v1/dispatches/" + id + "/records")
	if err != nil {
		t.Fatalf("GET records: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(body.Records) != 25 {
		t.Errorf("records = %d, want 25", len(body.Records))
	}
	for _, rec := range body.Records {
		if rec.Arena != "alpha" {
			t.Errorf("record arena = %q, want alpha", rec.Arena)
		}
	}
}

func TestGetDispatchNotFound(t *testing.T) {
	srv := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, path := range []string{"/v1/dispatches/missing", "/v1/dispatches/missing/records"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}
