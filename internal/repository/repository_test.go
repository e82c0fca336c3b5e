package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   map[string]interface{}
}

type upstreamObserverStub struct {
	mu        sync.Mutex
	endpoints []string
}

func (o *upstreamObserverStub) ObserveUpstreamRequest(method, endpoint string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.endpoints = append(o.endpoints, method+" "+endpoint)
}

func newUpstream(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*APIClient, *[]recordedRequest, *upstreamObserverStub) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		mu.Lock()
		requests = append(requests, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	observer := &upstreamObserverStub{}
	client := NewAPIClient(server.URL+"/", server.Client(), observer).WithToken("tok-1")
	return client, &requests, observer
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubsidyRequestRepositoryList(t *testing.T) {
	client, requests, observer := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":     1,
			"num_pages": 1,
			"results": []map[string]interface{}{
				{"uuid": "r1", "email": "ada@example.com", "course_title": "Compilers", "state": "requested", "created": "2024-01-02T03:04:05Z"},
			},
		})
	})
	repo := NewSubsidyRequestRepository(client)

	params := url.Values{"page": {"2"}, "ordering": {"-created"}}
	page, err := repo.List(context.Background(), models.SubsidyChannelCoupon, "ent-1", params)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "r1", page.Results[0].UUID)
	assert.Equal(t, 1, page.NumPages)

	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v1/coupon-code-requests/", req.Path)
	assert.Equal(t, "2", req.Query.Get("page"))
	assert.Equal(t, "-created", req.Query.Get("ordering"))
	assert.Equal(t, "ent-1", req.Query.Get("enterprise_customer_uuid"))
	assert.Equal(t, "Bearer tok-1", req.Auth)
	assert.False(t, params.Has("enterprise_customer_uuid"), "caller params are not modified")
	assert.Equal(t, []string{"GET /api/v1/coupon-code-requests"}, observer.endpoints)
}

func TestSubsidyRequestRepositoryActions(t *testing.T) {
	client, requests, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	repo := NewSubsidyRequestRepository(client)

	require.NoError(t, repo.Approve(context.Background(), models.SubsidyChannelLicense, dto.ApproveSubsidyRequestsPayload{
		SubsidyRequestUUIDs:    []string{"r1"},
		EnterpriseCustomerUUID: "ent-1",
		SendNotification:       true,
		SubscriptionPlanUUID:   "plan-1",
	}))
	require.NoError(t, repo.Decline(context.Background(), models.SubsidyChannelCoupon, dto.DeclineSubsidyRequestsPayload{
		SubsidyRequestUUIDs:    []string{"r2"},
		EnterpriseCustomerUUID: "ent-1",
	}))

	require.Len(t, *requests, 2)
	approve := (*requests)[0]
	assert.Equal(t, http.MethodPost, approve.Method)
	assert.Equal(t, "/api/v1/license-requests/approve/", approve.Path)
	assert.Equal(t, []interface{}{"r1"}, approve.Body["subsidy_request_uuids"])
	assert.Equal(t, "plan-1", approve.Body["subscription_plan_uuid"])
	assert.Equal(t, true, approve.Body["send_notification"])

	decline := (*requests)[1]
	assert.Equal(t, "/api/v1/coupon-code-requests/decline/", decline.Path)
	_, hasUnlink := decline.Body["unlink_users_from_enterprise"]
	assert.False(t, hasUnlink)
}

func TestOverviewRepository(t *testing.T) {
	client, requests, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{{"state": "requested", "count": 4}, {"state": "declined", "count": 1}})
	})
	repo := NewOverviewRepository(client)

	counts, err := repo.Overview(context.Background(), models.SubsidyChannelLicense, "ent-1", url.Values{"search": {"ada"}})
	require.NoError(t, err)
	assert.Equal(t, []dto.OverviewCountPayload{{State: "requested", Count: 4}, {State: "declined", Count: 1}}, counts)
	assert.Equal(t, "/api/v1/license-requests/overview/", (*requests)[0].Path)
	assert.Equal(t, "ada", (*requests)[0].Query.Get("search"))
}

func TestSubsidyConfigurationRepository(t *testing.T) {
	client, requests, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, map[string]interface{}{"enterprise_customer_uuid": "ent-1", "subsidy_type": "license"})
		case http.MethodPatch:
			writeJSON(w, http.StatusOK, map[string]interface{}{"enterprise_customer_uuid": "ent-1", "subsidy_requests_enabled": true})
		}
	})
	repo := NewSubsidyConfigurationRepository(client)

	_, err := repo.Get(context.Background(), "ent-1")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Not found.")

	license := "license"
	created, err := repo.Create(context.Background(), dto.SubsidyConfigurationPayload{EnterpriseCustomerUUID: "ent-1", SubsidyType: &license})
	require.NoError(t, err)
	require.NotNil(t, created.SubsidyType)
	assert.Equal(t, "license", *created.SubsidyType)

	_, err = repo.Update(context.Background(), "ent-1", dto.SubsidyConfigurationPatchPayload{"subsidy_type": nil})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/customer-configurations/ent-1/", (*requests)[0].Path)
	assert.Equal(t, "/api/v1/customer-configurations/", (*requests)[1].Path)
	assert.Equal(t, http.MethodPatch, (*requests)[2].Method)
	value, ok := (*requests)[2].Body["subsidy_type"]
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestInventoryRepository(t *testing.T) {
	client, requests, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/subscriptions/" {
			writeJSON(w, http.StatusOK, map[string]interface{}{"results": []map[string]interface{}{{"uuid": "plan-1", "is_active": true}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": []map[string]interface{}{}})
	})
	repo := NewInventoryRepository(client)

	coupons, err := repo.ListCoupons(context.Background(), "ent-1")
	require.NoError(t, err)
	assert.Empty(t, coupons)
	plans, err := repo.ListLicenseSubscriptions(context.Background(), "ent-1")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-1", plans[0].UUID)

	assert.Equal(t, "/api/v2/enterprise/coupons/ent-1/overview/", (*requests)[0].Path)
	assert.Equal(t, "ent-1", (*requests)[1].Query.Get("enterprise_customer_uuid"))
}

func TestLicenseAssignmentRepository(t *testing.T) {
	client, requests, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":   1,
			"results": []map[string]interface{}{{"uuid": "l1", "user_email": "ada@example.com", "status": "activated", "activation_date": "2024-03-01T00:00:00Z"}},
		})
	})
	repo := NewLicenseAssignmentRepository(client)

	page, err := repo.List(context.Background(), "ent-1", url.Values{"page": {"1"}})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	require.NotNil(t, page.Results[0].ActivationDate)
	assert.Equal(t, "/api/v1/enterprise-customers/ent-1/licenses/", (*requests)[0].Path)
}

func TestAPIClientMapsUpstreamErrors(t *testing.T) {
	cases := map[int]*appErrors.Error{
		http.StatusBadRequest:          appErrors.ErrValidation,
		http.StatusUnauthorized:        appErrors.ErrUnauthorized,
		http.StatusForbidden:           appErrors.ErrForbidden,
		http.StatusNotFound:            appErrors.ErrNotFound,
		http.StatusInternalServerError: appErrors.ErrUpstream,
		http.StatusServiceUnavailable:  appErrors.ErrUpstream,
	}
	for status, want := range cases {
		status, want := status, want
		t.Run(http.StatusText(status), func(t *testing.T) {
			client, _, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, status, map[string]string{"detail": "nope"})
			})
			err := client.Get(context.Background(), "/anything/", nil, &struct{}{})
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestAPIClientTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewAPIClient(server.URL, nil, nil)
	err := client.Get(context.Background(), "/api/v1/license-requests/", nil, &struct{}{})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestAPIClientUndecodableBody(t *testing.T) {
	client, _, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	err := client.Get(context.Background(), "/api/v1/license-requests/", nil, &struct{}{})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/api/v1/customer-configurations/:id", endpointLabel("/api/v1/customer-configurations/3f2b8a4e9c7d4f1a8b6e2d0c5a7f9e13/"))
	assert.Equal(t, "/api/v2/enterprise/coupons/:id/overview", endpointLabel("/api/v2/enterprise/coupons/42/overview/"))
	assert.Equal(t, "/api/v1/license-requests/approve", endpointLabel("/api/v1/license-requests/approve/"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "gateway", nil)

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "gateway:k", repo.key("k"))
}
