package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rewearhq/rewear/internal/db"
	"github.com/rewearhq/rewear/internal/model"
	"github.com/rewearhq/rewear/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, database
}

// seedUser creates a user directly in the store with a known password.
func seedUser(t *testing.T, database *sql.DB, username, email string, admin bool) *model.User {
	t.Helper()
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user, err := store.CreateUser(ctx, database, username, email, string(hash), "")
	if err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	if admin {
		if err := store.SetUserAdmin(ctx, database, user.ID, true); err != nil {
			t.Fatalf("granting admin to %s: %v", username, err)
		}
	}
	return user
}

// loginAs logs in over HTTP and returns the bearer token.
func loginAs(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "password123"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed for %s: %d", email, resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func TestRegisterAndLogin(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for register, got %d", resp.StatusCode)
	}
	var user model.User
	json.NewDecoder(resp.Body).Decode(&user)
	resp.Body.Close()
	if user.Points != model.SignupBonus {
		t.Errorf("expected signup bonus %d, got %d", model.SignupBonus, user.Points)
	}

	// Duplicate registration.
	resp, _ = http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate register, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Weak password.
	weak, _ := json.Marshal(map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	resp, _ = http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(weak))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for weak password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	loginAs(t, server, "alice@example.com")
}

func TestLoginInvalidCredentials(t *testing.T) {
	server, database := setupTestServer(t)
	seedUser(t, database, "alice", "alice@example.com", false)

	// Wrong password.
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown email gets the same answer.
	body, _ = json.Marshal(map[string]string{"email": "nobody@example.com", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, database := setupTestServer(t)
	seedUser(t, database, "alice", "alice@example.com", false)
	token := loginAs(t, server, "alice@example.com")

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The token no longer works.
	req, _ = authRequest("GET", server.URL+"/api/users/me", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSwapAPIFlow(t *testing.T) {
	server, database := setupTestServer(t)
	seedUser(t, database, "admin", "admin@example.com", true)
	seedUser(t, database, "alice", "alice@example.com", false)
	seedUser(t, database, "bob", "bob@example.com", false)

	adminToken := loginAs(t, server, "admin@example.com")
	aliceToken := loginAs(t, server, "alice@example.com")
	bobToken := loginAs(t, server, "bob@example.com")

	// Alice lists a jacket.
	req, _ := authRequest("POST", server.URL+"/api/items", aliceToken, map[string]any{
		"title":       "Denim Jacket",
		"category":    "outerwear",
		"condition":   "good",
		"point_value": 20,
		"tags":        []string{"Denim", "vintage"},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for item create, got %d", resp.StatusCode)
	}
	var item model.Item
	json.NewDecoder(resp.Body).Decode(&item)
	resp.Body.Close()
	if item.Status != model.ItemStatusPendingApproval {
		t.Errorf("new item status = %s, want %s", item.Status, model.ItemStatusPendingApproval)
	}

	// Bob cannot see it while pending.
	req, _ = authRequest("GET", server.URL+"/api/items", bobToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	var listed []model.Item
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed) != 0 {
		t.Errorf("expected no listed items before approval, got %d", len(listed))
	}

	// Admin approves.
	req, _ = authRequest("POST", server.URL+"/api/items/"+itoa(item.ID)+"/approve", adminToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for approve, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Bob requests a points swap.
	req, _ = authRequest("POST", server.URL+"/api/items/"+itoa(item.ID)+"/swap_request", bobToken, map[string]any{
		"message": "would love this",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for swap request, got %d", resp.StatusCode)
	}
	var swap model.SwapRequest
	json.NewDecoder(resp.Body).Decode(&swap)
	resp.Body.Close()

	// Alice accepts.
	req, _ = authRequest("POST", server.URL+"/api/items/swap_requests/"+itoa(swap.ID)+"/update_status", aliceToken, map[string]string{
		"status": model.SwapStatusAccepted,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for accept, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Second resolution attempt conflicts.
	req, _ = authRequest("POST", server.URL+"/api/items/swap_requests/"+itoa(swap.ID)+"/update_status", aliceToken, map[string]string{
		"status": model.SwapStatusRejected,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for double resolve, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Bob paid 20 points.
	req, _ = authRequest("GET", server.URL+"/api/users/me/points", bobToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	var points pointsResponse
	json.NewDecoder(resp.Body).Decode(&points)
	resp.Body.Close()
	if points.Balance != model.SignupBonus-20 {
		t.Errorf("bob balance = %d, want %d", points.Balance, model.SignupBonus-20)
	}
	if len(points.Transactions) != 2 {
		t.Errorf("bob transactions = %d, want 2", len(points.Transactions))
	}

	// Alice earned 20 points and the item shows as swapped.
	req, _ = authRequest("GET", server.URL+"/api/users/me/points", aliceToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&points)
	resp.Body.Close()
	if points.Balance != model.SignupBonus+20 {
		t.Errorf("alice balance = %d, want %d", points.Balance, model.SignupBonus+20)
	}

	req, _ = authRequest("GET", server.URL+"/api/items/"+itoa(item.ID), bobToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&item)
	resp.Body.Close()
	if item.Status != model.ItemStatusSwapped {
		t.Errorf("item status = %s, want %s", item.Status, model.ItemStatusSwapped)
	}
}

func TestAcceptWithInsufficientPointsReturns422(t *testing.T) {
	server, database := setupTestServer(t)
	seedUser(t, database, "admin", "admin@example.com", true)
	alice := seedUser(t, database, "alice", "alice@example.com", false)
	seedUser(t, database, "bob", "bob@example.com", false)

	aliceToken := loginAs(t, server, "alice@example.com")
	bobToken := loginAs(t, server, "bob@example.com")

	ctx := context.Background()
	item, err := store.CreateItem(ctx, database, alice.ID, store.NewItem{
		Title:      "Designer Coat",
		Category:   "outerwear",
		Condition:  "new",
		PointValue: model.SignupBonus + 30,
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if _, err := store.ApproveItem(ctx, database, item.ID); err != nil {
		t.Fatalf("approving item: %v", err)
	}

	req, _ := authRequest("POST", server.URL+"/api/items/"+itoa(item.ID)+"/swap_request", bobToken, map[string]any{})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for swap request, got %d", resp.StatusCode)
	}
	var swap model.SwapRequest
	json.NewDecoder(resp.Body).Decode(&swap)
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/items/swap_requests/"+itoa(swap.ID)+"/update_status", aliceToken, map[string]string{
		"status": model.SwapStatusAccepted,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for insufficient points, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The request stays pending and can still be rejected.
	got, err := store.GetSwapRequest(ctx, database, swap.ID)
	if err != nil {
		t.Fatalf("getting swap request: %v", err)
	}
	if got.Status != model.SwapStatusPending {
		t.Errorf("swap status after failed accept = %s, want pending", got.Status)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Health check needs no token.
	resp, _ = http.Get(server.URL + "/api/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for healthz, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminOnlyEndpoints(t *testing.T) {
	server, database := setupTestServer(t)
	alice := seedUser(t, database, "alice", "alice@example.com", false)
	token := loginAs(t, server, "alice@example.com")

	ctx := context.Background()
	item, err := store.CreateItem(ctx, database, alice.ID, store.NewItem{
		Title:      "Scarf",
		Category:   "accessories",
		Condition:  "good",
		PointValue: 5,
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	// Owners cannot approve their own listings.
	req, _ := authRequest("POST", server.URL+"/api/items/"+itoa(item.ID)+"/approve", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin approve, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/users", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin user list, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemNotFound(t *testing.T) {
	server, database := setupTestServer(t)
	seedUser(t, database, "alice", "alice@example.com", false)
	token := loginAs(t, server, "alice@example.com")

	req, _ := authRequest("GET", server.URL+"/api/items/9999", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
