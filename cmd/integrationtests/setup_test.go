package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/internal/token"
	users "auction-house/internal/userService"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// TestEnv bundles the router with the backing store so tests can seed
// state that the public API cannot create (e.g. already-ended auctions).
type TestEnv struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepo
}

// SetupTestEnv initializes the full stack on the in-memory repository.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()

	tokens, err := token.NewManager("integration-test-secret")
	require.NoError(t, err)

	auctionSvc := auction.NewAuctionService(repo)
	userSvc := users.NewUserService(repo, tokens)

	return &TestEnv{
		Router: server.SetupRouter(auctionSvc, userSvc, tokens),
		Repo:   repo,
	}
}

// ExecuteRequestAndParse executes an HTTP request on the router and
// parses the JSON envelope. An empty bearer token omits the header.
func (e *TestEnv) ExecuteRequestAndParse(t *testing.T, method, url, bearer string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp, w
}

// RegisterUser registers a user through the API and returns (userID, token).
func (e *TestEnv) RegisterUser(t *testing.T, name, email string) (string, string) {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/users", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "integration-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := resp["data"].(map[string]any)
	return data["user_id"].(string), data["token"].(string)
}

// CreateAuction creates an auction through the API and returns its id.
func (e *TestEnv) CreateAuction(t *testing.T, bearer string, startingBid float64, endTime string) string {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/auctions", bearer, map[string]any{
		"name":         "integration auction",
		"description":  "integration test listing",
		"starting_bid": startingBid,
		"end_time":     endTime,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	return resp["data"].(map[string]any)["auction_id"].(string)
}
