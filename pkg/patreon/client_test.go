package patreon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/patreon-roster/internal/testutil"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := DefaultConfig("test-token")
	cfg.BaseURL = baseURL
	cfg.UserAgent = "TestApp/1.0.0"

	client, err := New(cfg)
	require.NoError(t, err)
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("token"),
		},
		{
			name: "empty token",
			config: Config{
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "access token is required",
		},
		{
			name: "empty user agent",
			config: Config{
				AccessToken: "token",
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "base url without trailing slash",
			config: Config{
				AccessToken: "token",
				UserAgent:   "TestApp/1.0.0",
				BaseURL:     "http://localhost/api/oauth2/api",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, tt.errorMsg, err.Error())
				return
			}
			require.NoError(t, err)
			require.NotNil(t, client)
			assert.True(t, strings.HasSuffix(client.baseURL.String(), "/"))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("token")

	assert.Equal(t, "token", cfg.AccessToken)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Contains(t, cfg.UserAgent, "patreon-roster/"+Version)
}

func TestClient_SetsHeaders(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()

	client := newTestClient(t, mock.URL())

	_, err := client.FetchUser(context.Background(), nil, nil)
	require.NoError(t, err)

	reqs := mock.Requests("current_user")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer test-token", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "TestApp/1.0.0", reqs[0].Header.Get("User-Agent"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
}

func TestClient_FetchUser(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()

	client := newTestClient(t, mock.URL())

	doc, err := client.FetchUser(context.Background(), []string{"campaign"}, map[string][]string{
		"user": {"first_name"},
	})
	require.NoError(t, err)

	require.Len(t, doc.Data, 1)
	assert.Equal(t, "1", doc.Data[0].ID)
	assert.Equal(t, "Creator", doc.Data[0].Attribute("first_name").String())

	reqs := mock.Requests("current_user")
	require.Len(t, reqs, 1)
	assert.Equal(t, "campaign", reqs[0].Query.Get("include"))
	assert.Equal(t, "first_name", reqs[0].Query.Get("fields[user]"))
}

func TestClient_FetchCampaign(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetCampaigns("42", "43")

	client := newTestClient(t, mock.URL())

	doc, err := client.FetchCampaign(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, doc.Data, 2)
	assert.Equal(t, "42", doc.Data[0].ID)
	assert.Equal(t, "campaign", doc.Data[0].Type)

	reqs := mock.Requests("current_user/campaigns")
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Query.Get("include"))
}

func TestClient_FetchCampaignAndPatrons(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetCampaigns("42")

	client := newTestClient(t, mock.URL())

	_, err := client.FetchCampaignAndPatrons(context.Background(), nil, nil)
	require.NoError(t, err)

	reqs := mock.Requests("current_user/campaigns")
	require.Len(t, reqs, 1)
	assert.Equal(t, "rewards,creator,goals,pledges", reqs[0].Query.Get("include"))

	// The shared default slice must not grow between calls.
	assert.Len(t, DefaultCampaignIncludes, 3)
}

func TestClient_FetchPageOfPledges(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetPledgePages("42", testutil.Pledges("a", 2), testutil.Pledges("b", 1))

	client := newTestClient(t, mock.URL())
	ctx := context.Background()

	doc, err := client.FetchPageOfPledges(ctx, PledgePageRequest{
		CampaignID: "42",
		PageSize:   25,
		Fields: map[string][]string{
			"pledge": {"total_historical_amount_cents", "declined_since"},
		},
	})
	require.NoError(t, err)
	require.Len(t, doc.Data, 2)

	cursor, err := ExtractCursor(doc, DefaultCursorPath)
	require.NoError(t, err)
	assert.Equal(t, "c1", cursor)

	doc, err = client.FetchPageOfPledges(ctx, PledgePageRequest{
		CampaignID: "42",
		PageSize:   25,
		Cursor:     cursor,
	})
	require.NoError(t, err)
	require.Len(t, doc.Data, 1)

	cursor, err = ExtractCursor(doc, DefaultCursorPath)
	require.NoError(t, err)
	assert.Empty(t, cursor)

	reqs := mock.Requests("campaigns/42/pledges")
	require.Len(t, reqs, 2)
	assert.Equal(t, "25", reqs[0].Query.Get("page[count]"))
	assert.Empty(t, reqs[0].Query.Get("page[cursor]"))
	assert.Equal(t, "total_historical_amount_cents,declined_since", reqs[0].Query.Get("fields[pledge]"))
	assert.Equal(t, "c1", reqs[1].Query.Get("page[cursor]"))
}

func TestClient_FetchPageOfPledges_CursorTime(t *testing.T) {
	var gotCursor string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.URL.Query().Get("page[cursor]")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[],"links":{}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	berlin := time.FixedZone("CEST", 2*60*60)
	_, err := client.FetchPageOfPledges(context.Background(), PledgePageRequest{
		CampaignID: "42",
		PageSize:   10,
		Cursor:     "ignored",
		CursorTime: time.Date(2017, 6, 1, 14, 30, 0, 0, berlin),
	})
	require.NoError(t, err)
	assert.Equal(t, "2017-06-01T12:30:00Z", gotCursor)
}

func TestClient_FetchPageOfPledges_DefaultPageSize(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetPledgePages("42", testutil.Pledges("a", 1))

	client := newTestClient(t, mock.URL())

	_, err := client.FetchPageOfPledges(context.Background(), PledgePageRequest{CampaignID: "42"})
	require.NoError(t, err)

	reqs := mock.Requests("campaigns/42/pledges")
	require.Len(t, reqs, 1)
	assert.Equal(t, "25", reqs[0].Query.Get("page[count]"))
}

func TestClient_FetchPageOfPledges_MissingCampaign(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1/")

	_, err := client.FetchPageOfPledges(context.Background(), PledgePageRequest{})
	assert.ErrorIs(t, err, ErrMissingCampaignID)
}

func TestClient_ErrorPayload(t *testing.T) {
	const body = `{"errors":[{"code":1,"code_name":"Unauthorized","detail":"The server could not verify that you are authorized to access the URL requested.","id":"abc","status":"401","title":"Unauthorized"}]}`

	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetResponse("current_user/campaigns", http.StatusUnauthorized, body)

	client := newTestClient(t, mock.URL())

	doc, err := client.FetchCampaign(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Nil(t, doc)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, body, string(apiErr.Body))
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "Unauthorized", apiErr.Errors[0].CodeName)
	assert.True(t, IsAPIError(err))
}

func TestClient_ErrorPayloadWithSuccessStatus(t *testing.T) {
	const body = `{"errors":[{"title":"Something odd"}]}`

	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetResponse("current_user", http.StatusOK, body)

	client := newTestClient(t, mock.URL())

	_, err := client.FetchUser(context.Background(), nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, body, string(apiErr.Body))
}

func TestClient_ServerErrorWithoutPayload(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetResponse("current_user", http.StatusBadGateway, "<html>bad gateway</html>")

	client := newTestClient(t, mock.URL())

	_, err := client.FetchUser(context.Background(), nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Errors)
}

func TestClient_MalformedBody(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()
	mock.SetResponse("current_user", http.StatusOK, "not json")

	client := newTestClient(t, mock.URL())

	_, err := client.FetchUser(context.Background(), nil, nil)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
	assert.Contains(t, err.Error(), "decode current_user response")
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := newTestClient(t, baseURL)

	_, err := client.FetchUser(context.Background(), nil, nil)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockPatreon()
	defer mock.Close()

	client := newTestClient(t, mock.URL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchUser(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
