// Package testutil provides testing utilities for the Patreon roster.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// APIPrefix is where the mock serves the API namespace.
const APIPrefix = "/api/oauth2/api/"

// MockPledge describes one pledge row and the resources it links to.
type MockPledge struct {
	ID            string
	TotalCents    int
	DeclinedSince string // empty encodes null

	PatronID  string
	FirstName string
	// DiscordUserID is written verbatim into social_connections.discord.user_id;
	// nil leaves the discord connection out.
	DiscordUserID any

	RewardID    string // empty encodes a null reward
	RewardCents int
}

// RecordedRequest is a request the mock received.
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// MockPatreon is a configurable mock Patreon API server for testing.
type MockPatreon struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewMockPatreon creates a new mock server with a current_user and an empty
// campaign list.
func NewMockPatreon() *MockPatreon {
	mock := &MockPatreon{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, APIPrefix)

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Path:   path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		handler, exists := mock.handlers[path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		writeJSON(w, http.StatusNotFound, errorsBody("Not Found", "no mock for "+path))
	}))

	mock.SetResponse("current_user", http.StatusOK,
		`{"data":{"id":"1","type":"user","attributes":{"first_name":"Creator"}}}`)
	mock.SetCampaigns()

	return mock
}

// URL returns the base URL of the mocked API namespace.
func (m *MockPatreon) URL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockPatreon) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a path relative to the namespace.
func (m *MockPatreon) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed status and body for a path.
func (m *MockPatreon) SetResponse(path string, status int, body string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// SetCampaigns configures current_user/campaigns to list the given ids.
func (m *MockPatreon) SetCampaigns(ids ...string) {
	data := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]any{
			"id":         id,
			"type":       "campaign",
			"attributes": map[string]any{"creation_name": "things"},
		})
	}
	m.SetHandler("current_user/campaigns", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": data})
	})
}

// SetPledgePages serves pages for a campaign. The first page answers requests
// without a cursor; page i (i > 0) answers cursor "c<i>". The last page links
// to no next page.
func (m *MockPatreon) SetPledgePages(campaignID string, pages ...[]MockPledge) {
	base := m.URL()
	m.SetHandler("campaigns/"+campaignID+"/pledges", func(w http.ResponseWriter, r *http.Request) {
		index := 0
		if cursor := r.URL.Query().Get("page[cursor]"); cursor != "" {
			n, err := strconv.Atoi(strings.TrimPrefix(cursor, "c"))
			if err != nil || n <= 0 || n >= len(pages) {
				writeJSON(w, http.StatusBadRequest, errorsBody("Bad Request", "unknown cursor "+cursor))
				return
			}
			index = n
		}

		next := ""
		if index+1 < len(pages) {
			next = fmt.Sprintf("c%d", index+1)
		}
		writeJSON(w, http.StatusOK, PledgePage(base, campaignID, pages[index], next))
	})
}

// Requests returns the requests received for path.
func (m *MockPatreon) Requests(path string) []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []RecordedRequest
	for _, req := range m.requests {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

// RequestCount returns the number of requests made to the server.
func (m *MockPatreon) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// PledgePage builds a pledges response body. A non-empty next cursor adds a
// links.next URL carrying it.
func PledgePage(baseURL, campaignID string, pledges []MockPledge, next string) map[string]any {
	data := make([]map[string]any, 0, len(pledges))
	included := make([]map[string]any, 0, 2*len(pledges))

	for _, p := range pledges {
		var declined any
		if p.DeclinedSince != "" {
			declined = p.DeclinedSince
		}

		var reward any
		if p.RewardID != "" {
			reward = map[string]any{"id": p.RewardID, "type": "reward"}
			included = append(included, map[string]any{
				"id":         p.RewardID,
				"type":       "reward",
				"attributes": map[string]any{"amount_cents": p.RewardCents},
			})
		}

		data = append(data, map[string]any{
			"id":   p.ID,
			"type": "pledge",
			"attributes": map[string]any{
				"total_historical_amount_cents": p.TotalCents,
				"declined_since":                declined,
			},
			"relationships": map[string]any{
				"patron": map[string]any{"data": map[string]any{"id": p.PatronID, "type": "user"}},
				"reward": map[string]any{"data": reward},
			},
		})

		social := map[string]any{"youtube": nil}
		if p.DiscordUserID != nil {
			social["discord"] = map[string]any{
				"user_id": p.DiscordUserID,
				"url":     nil,
			}
		}
		included = append(included, map[string]any{
			"id":   p.PatronID,
			"type": "user",
			"attributes": map[string]any{
				"first_name":         p.FirstName,
				"social_connections": social,
			},
		})
	}

	first := fmt.Sprintf("%scampaigns/%s/pledges?page%%5Bcount%%5D=25", baseURL, campaignID)
	links := map[string]any{"first": first}
	if next != "" {
		links["next"] = first + "&page%5Bcursor%5D=" + url.QueryEscape(next)
	}

	return map[string]any{
		"data":     data,
		"included": included,
		"links":    links,
		"meta":     map[string]any{"count": len(pledges)},
	}
}

// Pledges generates n pledges with ids prefixed by prefix.
func Pledges(prefix string, n int) []MockPledge {
	out := make([]MockPledge, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s%d", prefix, i)
		out = append(out, MockPledge{
			ID:            id,
			TotalCents:    100 * (i + 1),
			PatronID:      "user-" + id,
			FirstName:     "Patron " + id,
			DiscordUserID: strconv.Itoa(100000 + i),
			RewardID:      "reward-500",
			RewardCents:   500,
		})
	}
	return out
}

func errorsBody(title, detail string) map[string]any {
	return map[string]any{
		"errors": []map[string]any{{
			"code":      nil,
			"code_name": strings.ReplaceAll(title, " ", ""),
			"title":     title,
			"detail":    detail,
		}},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
