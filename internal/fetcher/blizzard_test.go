package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ah-price-alerts/internal/catalog"
	"ah-price-alerts/internal/market"
	"ah-price-alerts/internal/money"
)

type fakeAPI struct {
	*httptest.Server
	tokenCalls atomic.Int32
	routes     map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T, routes map[string]http.HandlerFunc) *fakeAPI {
	t.Helper()

	api := &fakeAPI{routes: routes}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			api.tokenCalls.Add(1)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "id", user)
			assert.Equal(t, "secret", pass)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok", "token_type": "bearer", "expires_in": 3600,
			})
			return
		}

		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		h, ok := api.routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":404}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(api.Close)
	return api
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(api *fakeAPI, mutate ...func(*Options)) *Blizzard {
	opts := Options{
		Region:       "eu",
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     api.URL + "/token",
		APIBase:      api.URL,
		Timeout:      time.Second,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewBlizzard(opts, zerolog.Nop())
}

func TestListClusters(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, map[string]http.HandlerFunc{
		"/data/wow/connected-realm/index": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "dynamic-eu", r.URL.Query().Get("namespace"))
			writeJSON(`{"connected_realms":[
				{"href":"https://eu.api.blizzard.com/data/wow/connected-realm/1080?namespace=dynamic-eu"},
				{"key":{"href":"https://eu.api.blizzard.com/data/wow/connected-realm/509/?namespace=dynamic-eu"}},
				{"href":"https://eu.api.blizzard.com/data/wow/connected-realm/abc"},
				{"href":""},
				{"href":"https://eu.api.blizzard.com/data/wow/connected-realm/509"}
			]}`)(w, r)
		},
		"/data/wow/connected-realm/1080": writeJSON(`{"id":1080,"realms":[
			{"name":"Tarren Mill","slug":"tarren-mill"},
			{"name":{"en_US":"","ru_RU":"Гордунни"},"slug":"gordunni"},
			{"slug":"twisting-nether"}
		]}`),
		// 509 detail missing -> fallback label
	})

	clusters, err := newTestClient(api).ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	assert.Equal(t, int64(509), clusters[0].ID)
	assert.Empty(t, clusters[0].RealmNames)
	assert.Equal(t, "CR-509", clusters[0].Label())

	assert.Equal(t, int64(1080), clusters[1].ID)
	assert.Equal(t, []string{"Tarren Mill", "Гордунни", "twisting-nether"}, clusters[1].RealmNames)
	assert.Equal(t, "Tarren Mill, Гордунни, Twisting Nether", clusters[1].Label())

	assert.Equal(t, int32(1), api.tokenCalls.Load(), "token should be cached")
}

func TestListClustersWithCommodities(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, map[string]http.HandlerFunc{
		"/data/wow/connected-realm/index": writeJSON(`{"connected_realms":[]}`),
	})

	clusters, err := newTestClient(api, func(o *Options) { o.IncludeCommodities = true }).ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, market.CommoditiesClusterID, clusters[0].ID)
	assert.Equal(t, "Commodities", clusters[0].Label())
}

func TestListClustersIndexFailure(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, map[string]http.HandlerFunc{
		"/data/wow/connected-realm/index": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("maintenance"))
		},
	})

	_, err := newTestClient(api).ListClusters(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "maintenance")
}

func TestFetchClusterListings(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, map[string]http.HandlerFunc{
		"/data/wow/connected-realm/1080/auctions": writeJSON(`{"auctions":[
			{"id":1,"item":{"id":42},"buyout":99000000,"quantity":99,"time_left":"SHORT","owner":"Seller-Realm"},
			{"id":2,"item":{"id":42},"bid":500,"quantity":1,"time_left":"LONG"},
			{"id":3,"item":{"id":42},"buyout":100,"quantity":0,"time_left":"LONG"},
			{"id":4,"item":{},"buyout":100,"quantity":1},
			{"id":5,"item":{"id":7},"buyout":300,"time_left":"MEDIUM"}
		]}`),
	})

	listings, err := newTestClient(api).FetchClusterListings(context.Background(), 1080)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, market.Listing{
		ItemID: 42, Buyout: 99_000_000, Quantity: 99, ListingID: 1,
		TimeLeft: "SHORT", Seller: "Seller-Realm", ClusterID: 1080,
	}, listings[0])
	assert.Equal(t, money.Copper(1_000_000), listings[0].UnitPrice())

	assert.Equal(t, int64(1), listings[1].Quantity, "missing quantity defaults to one")
	assert.Equal(t, "unknown", listings[1].Seller)
}

func TestFetchCommodityListings(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, map[string]http.HandlerFunc{
		"/data/wow/auctions/commodities": writeJSON(`{"auctions":[
			{"id":9,"item":{"id":42},"unit_price":250,"quantity":4,"time_left":"SHORT"}
		]}`),
	})

	listings, err := newTestClient(api).FetchClusterListings(context.Background(), market.CommoditiesClusterID)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, money.Copper(1000), listings[0].Buyout)
	assert.Equal(t, money.Copper(250), listings[0].UnitPrice())
}

func TestFetchClusterListingsNotFound(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, nil)
	_, err := newTestClient(api).FetchClusterListings(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestResolveItem(t *testing.T) {
	t.Parallel()

	var locales []string
	api := newFakeAPI(t, map[string]http.HandlerFunc{
		"/data/wow/search/item": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "static-eu", q.Get("namespace"))
			assert.Equal(t, "id", q.Get("orderby"))
			for key := range q {
				if strings.HasPrefix(key, "name.") {
					locales = append(locales, strings.TrimPrefix(key, "name."))
				}
			}
			if q.Get("name.en_US") == "" {
				writeJSON(`{"results":[]}`)(w, r)
				return
			}
			writeJSON(`{"results":[
				{"data":{"id":41,"name":{"en_US":"Foo Bar","ru_RU":"Фу Бар"}}},
				{"data":{"id":42,"name":{"en_US":"Foo","ru_RU":"Фу"}}}
			]}`)(w, r)
		},
	})

	client := newTestClient(api)
	id, name, err := client.ResolveItem(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "Foo", name)
	assert.Equal(t, []string{"ru_RU", "en_US"}, locales)

	_, _, err = client.ResolveItem(context.Background(), "Fo")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestResolveItemProviderError(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, map[string]http.HandlerFunc{
		"/data/wow/search/item": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})

	_, _, err := newTestClient(api, func(o *Options) { o.Locales = []string{"en_US"} }).ResolveItem(context.Background(), "Foo")
	require.Error(t, err)
	assert.NotErrorIs(t, err, catalog.ErrNotFound)
}

func TestLocalizedString(t *testing.T) {
	t.Parallel()

	var plain, mapped localizedString
	require.NoError(t, json.Unmarshal([]byte(`"Foo"`), &plain))
	require.NoError(t, json.Unmarshal([]byte(`{"en_US":"Foo","ru_RU":"Фу"}`), &mapped))

	assert.Equal(t, "Foo", plain.In("ru_RU"))
	assert.Equal(t, "Фу", mapped.In("ru_RU"))
	assert.Equal(t, "Foo", mapped.First("de_DE", "en_US"))
}
