package dmz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"registration-sync-go/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(models.AllowListConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client, server
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(models.AllowListConfig{APIKey: "k"}); err == nil {
		t.Error("Expected error for missing base URL")
	}
	if _, err := NewClient(models.AllowListConfig{BaseURL: "http://localhost"}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestUpsert_SendsIdentityWithAPIKey(t *testing.T) {
	var got models.AllowListIdentity
	var gotKey string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})

	identity := models.AllowListIdentity{
		Email:      "p1@example.com",
		Name:       "Player One",
		University: "Delhi University",
		Phone:      "+911234500001",
	}
	if err := client.Upsert(context.Background(), identity); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("Expected API key header, got %q", gotKey)
	}
	if got != identity {
		t.Errorf("Identity payload mismatch: %+v", got)
	}
}

func TestUpsert_ConflictIsSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "entry already exists",
		})
	})

	err := client.Upsert(context.Background(), models.AllowListIdentity{Email: "p1@example.com"})
	if err != nil {
		t.Errorf("Conflict must be treated as success, got %v", err)
	}
}

func TestUpsert_ServerErrorFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.Upsert(context.Background(), models.AllowListIdentity{Email: "p1@example.com"})
	if err == nil {
		t.Error("Expected error for 500 response")
	}
}

func TestRemove_NotFoundIsSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	if err := client.Remove(context.Background(), "gone@example.com"); err != nil {
		t.Errorf("Not-found must be treated as success, got %v", err)
	}
}

func TestSwap_RemoveFailureStillAdds(t *testing.T) {
	var mu sync.Mutex
	var added bool

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			http.Error(w, "boom", http.StatusInternalServerError)
		case http.MethodPost:
			mu.Lock()
			added = true
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		}
	})

	err := client.Swap(context.Background(), "old@example.com", models.AllowListIdentity{
		Email: "new@example.com", Name: "N", Phone: "+911",
	})
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !added {
		t.Error("Swap must add the new identity even when removal fails")
	}
}

func TestSyncFormPlayers_PartialFailureSettlesBatch(t *testing.T) {
	var mu sync.Mutex
	synced := make(map[string]bool)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var identity models.AllowListIdentity
		_ = json.NewDecoder(r.Body).Decode(&identity)
		if identity.Email == "p3@example.com" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		mu.Lock()
		synced[identity.Email] = true
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	form := &models.Form{Id: "form-1", Title: "Football"}
	for i := 1; i <= 5; i++ {
		form.Fields.PlayerFields = append(form.Fields.PlayerFields, models.PlayerField{
			Name:  "Player",
			Email: "p" + string(rune('0'+i)) + "@example.com",
			Phone: "+911",
		})
	}

	err := client.SyncFormPlayers(context.Background(), form, "Delhi University")
	if err == nil {
		t.Fatal("Expected summary error when a player fails")
	}

	mu.Lock()
	defer mu.Unlock()
	// The failing player must not block the other four.
	if len(synced) != 4 {
		t.Errorf("Expected 4 players synced, got %d: %v", len(synced), synced)
	}
	if synced["p3@example.com"] {
		t.Error("Failing player reported as synced")
	}
}

func TestSyncFormPlayers_SkipsIncompleteEntries(t *testing.T) {
	var mu sync.Mutex
	var calls int

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	form := &models.Form{Id: "form-1", Title: "Football"}
	form.Fields.PlayerFields = []models.PlayerField{
		{Name: "Full", Email: "full@example.com", Phone: "+911"},
		{Name: "No Email", Phone: "+912"},
		{Email: "noname@example.com", Phone: "+913"},
	}

	if err := client.SyncFormPlayers(context.Background(), form, "U"); err != nil {
		t.Fatalf("SyncFormPlayers failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected 1 upsert call, got %d", calls)
	}
}

func TestSyncFormPlayers_EmptyRosterIsNoop(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request expected for empty roster")
	})

	form := &models.Form{Id: "form-1", Title: "Football"}
	if err := client.SyncFormPlayers(context.Background(), form, "U"); err != nil {
		t.Errorf("Empty roster must be a noop, got %v", err)
	}
}
