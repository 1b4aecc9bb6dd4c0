package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{
		BaseURL:           url,
		RequestsPerSecond: 1000,
		Timeout:           5 * time.Second,
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
	}
}

const ashJSON = `{"data":[{
	"id":14558127,
	"name":"Ash Blossom & Joyous Spring",
	"type":"Tuner Effect Monster",
	"desc":"When a card or effect is activated...",
	"race":"Zombie",
	"attribute":"FIRE",
	"level":3,
	"atk":0,
	"def":1800,
	"card_images":[{"image_url":"https://img/14558127.jpg","image_url_small":"https://img/small/14558127.jpg"}]
}]}`

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ash", r.URL.Query().Get("fname"))
		assert.Equal(t, "30", r.URL.Query().Get("num"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ashJSON))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	cards, err := client.Search(context.Background(), "ash")
	require.NoError(t, err)
	require.Len(t, cards, 1)

	card := cards[0]
	assert.Equal(t, "Ash Blossom & Joyous Spring", card.Name)
	require.NotNil(t, card.Def)
	assert.Equal(t, 1800, *card.Def)
	assert.Equal(t, "https://img/small/14558127.jpg", card.ImageURLSmall)
	assert.False(t, card.IsExtraDeck())
}

func TestClient_SearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No card matching your query was found in the database."}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	cards, err := client.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, cards)

	empty, err := client.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(ashJSON))
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	cards, err := client.Search(context.Background(), "ash")
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.Search(context.Background(), "ash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_MetadataStopsWhenUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	names := make([]string, 45)
	for i := range names {
		names[i] = fmt.Sprintf("Card %02d", i)
	}

	client := NewClient(testConfig(server.URL), nil)
	meta, err := client.Metadata(context.Background(), names)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "1 of 3 metadata chunks failed")
	assert.Empty(t, meta)
	// one chunk with its two retries, the other chunks are skipped
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_MetadataKeepsPartialResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("name"), "Card 00") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid parameter"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":7,"name":"Card 20","type":"Spell Card"}]}`))
	}))
	defer server.Close()

	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("Card %02d", i)
	}

	client := NewClient(testConfig(server.URL), nil)
	meta, err := client.Metadata(context.Background(), names)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Spell Card", meta["card 20"].Type)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid parameter"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.Search(context.Background(), "ash")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestClient_MetadataChunks(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		names := strings.Split(r.URL.Query().Get("name"), "|")
		assert.LessOrEqual(t, len(names), 20)

		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf(`{"id":%d,"name":%q,"type":"Effect Monster","card_images":[{"image_url_small":"s%d"}]}`, i, n, i)
		}
		_, _ = w.Write([]byte(`{"data":[` + strings.Join(parts, ",") + `]}`))
	}))
	defer server.Close()

	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("Card %02d", i)
	}
	names = append(names, "card 00") // duplicate ignoring case

	client := NewClient(testConfig(server.URL), nil)
	meta, err := client.Metadata(context.Background(), names)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, meta, 25)
	assert.Equal(t, "Effect Monster", meta["card 07"].Type)
}

func TestClient_BestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"name":"Ash Blossom & Joyous Spring"},
			{"id":2,"name":"Snake-Eye Ash"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	card, err := client.BestMatch(context.Background(), "snake eye ash")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, 2, card.ID)
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.Search(ctx, "ash")
	assert.ErrorIs(t, err, context.Canceled)
}
