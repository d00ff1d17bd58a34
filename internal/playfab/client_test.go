package playfab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		TitleID:    "ABCD",
		SecretKey:  "secret",
		BaseURL:    srv.URL,
		MaxRetries: retries,
	})
	require.NoError(t, err)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": status, "status": "OK", "data": data})
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{TitleID: "ABCD"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := NewClient(Options{TitleID: "ABCD", SecretKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://ABCD.playfabapi.com", c.baseURL)
}

func TestUpdateCatalogItems(t *testing.T) {
	var got UpdateCatalogItemsRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Admin/UpdateCatalogItems", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-SecretKey"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, http.StatusOK, map[string]any{})
	}, 0)

	n := uint32(5)
	err := c.UpdateCatalogItems(context.Background(), UpdateCatalogItemsRequest{
		CatalogVersion: "Main",
		Catalog: []CatalogItem{{
			ItemID:     "sword",
			Consumable: &CatalogItemConsumableInfo{UsageCount: &n},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Main", got.CatalogVersion)
	require.Len(t, got.Catalog, 1)
	require.NotNil(t, got.Catalog[0].Consumable)
	assert.Equal(t, uint32(5), *got.Catalog[0].Consumable.UsageCount)
	assert.Nil(t, got.Catalog[0].Consumable.UsagePeriod)
}

func TestGetCatalogItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req getCatalogItemsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Main", req.CatalogVersion)
		writeEnvelope(w, http.StatusOK, map[string]any{
			"Catalog": []map[string]any{
				{"ItemId": "sword", "DisplayName": "Sword", "CustomData": nil, "ItemImageUrl": nil},
				{"ItemId": "chest", "Container": map[string]any{"KeyItemId": "key"}},
			},
		})
	}, 0)

	items, err := c.GetCatalogItems(context.Background(), "Main")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Sword", items[0].DisplayName)
	assert.Equal(t, "", items[0].CustomData)
	require.NotNil(t, items[1].Container)
	assert.Equal(t, "key", items[1].Container.KeyItemID)
}

func TestCall_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"Catalog": []any{}})
	}, 3)

	items, err := c.GetCatalogItems(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCall_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, 2)

	_, err := c.GetCatalogItems(context.Background(), "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "error %v", err)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatus)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCall_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"status":"BadRequest","error":"InvalidParams","errorCode":1000,` +
			`"errorMessage":"Invalid input parameters","errorDetails":{"Catalog[0].ItemId":["required"]}}`))
	}, 5)

	err := c.UpdateCatalogItems(context.Background(), UpdateCatalogItemsRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "error %v", err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "InvalidParams", apiErr.Name)
	assert.Equal(t, 1000, apiErr.Code)
	assert.Equal(t, []string{"required"}, apiErr.Details["Catalog[0].ItemId"])
	assert.False(t, apiErr.Temporary())
	assert.Contains(t, apiErr.Error(), "Invalid input parameters")
}

func TestCall_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.UpdateCatalogItems(ctx, UpdateCatalogItemsRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
