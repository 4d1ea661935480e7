package brevo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestUpsertContactCreates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contacts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("api-key") != "test-key" {
			t.Error("missing api-key header")
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["updateEnabled"] != true {
			t.Error("upsert must set updateEnabled")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 4321}`))
	}))

	id, err := client.UpsertContact(context.Background(), Contact{
		Email:      "ana@acme.com",
		Attributes: map[string]interface{}{"FIRSTNAME": "Ana"},
	})
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if id != "4321" {
		t.Fatalf("id = %q, want 4321", id)
	}
}

func TestUpsertContactExistingLooksUpID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/contacts":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/contacts/ana@acme.com":
			_, _ = w.Write([]byte(`{"id": 99}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	id, err := client.UpsertContact(context.Background(), Contact{Email: "ana@acme.com"})
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if id != "99" {
		t.Fatalf("id = %q, want 99", id)
	}
}

func TestAddToList(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contacts/lists/7/contacts/add" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"contacts": {"success": ["ana@acme.com"]}}`))
	}))

	if err := client.AddToList(context.Background(), 7, "ana@acme.com"); err != nil {
		t.Fatalf("AddToList: %v", err)
	}
}

func TestCreateDealLinksContact(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/deals" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		linked, _ := body["linkedContactsIds"].([]interface{})
		if len(linked) != 1 {
			t.Errorf("linkedContactsIds = %v", body["linkedContactsIds"])
		}
		_, _ = w.Write([]byte(`{"id": "deal-1"}`))
	}))

	id, err := client.CreateDeal(context.Background(), Deal{
		Name:      "Acme SRL - chatbot lead",
		ContactID: "4321",
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if id != "deal-1" {
		t.Fatalf("id = %q", id)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "Key not found"}`))
	}))

	if _, err := client.UpsertContact(context.Background(), Contact{Email: "x@y.com"}); err == nil {
		t.Fatal("expected error on 401")
	}
}
