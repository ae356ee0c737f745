package gumloop

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pantrypal/backend/internal/domain"
)

// fakePipeline serves the three Gumloop endpoints. Runs report RUNNING for
// pendingPolls polls before settling on finalState.
type fakePipeline struct {
	t            *testing.T
	pendingPolls int32
	finalState   string
	outputs      map[string]interface{}
	startStatus  []int

	polls      int32
	starts     int32
	lastInputs []pipelineInput
	lastUpload uploadFileRequest
}

func (f *fakePipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Bearer test-key", r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/v1/upload_file":
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastUpload))
		json.NewEncoder(w).Encode(map[string]string{"file_name": "stored-" + f.lastUpload.FileName})

	case "/api/v1/start_pipeline":
		n := atomic.AddInt32(&f.starts, 1)
		if int(n) <= len(f.startStatus) {
			w.WriteHeader(f.startStatus[n-1])
			return
		}
		var req startPipelineRequest
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(f.t, "user-1", req.UserID)
		f.lastInputs = req.PipelineInputs
		json.NewEncoder(w).Encode(map[string]string{"run_id": "run-42"})

	case "/api/v1/get_pl_run":
		assert.Equal(f.t, "run-42", r.URL.Query().Get("run_id"))
		assert.Equal(f.t, "user-1", r.URL.Query().Get("user_id"))
		n := atomic.AddInt32(&f.polls, 1)
		if n <= f.pendingPolls {
			json.NewEncoder(w).Encode(map[string]string{"state": "RUNNING"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"state":   f.finalState,
			"error":   "model overloaded",
			"outputs": f.outputs,
		})

	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, serverURL string) *Client {
	client := NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           serverURL,
		UserID:            "user-1",
		SuggestPipelineID: "suggest",
		SearchPipelineID:  "search",
		ImportPipelineID:  "import",
		ReceiptPipelineID: "receipt",
		PollInterval:      time.Millisecond,
		MaxWait:           time.Second,
		RequestsPerHour:   3600 * 1000,
	}, zaptest.NewLogger(t))
	client.backoff = func(int) time.Duration { return time.Millisecond }
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil)

	assert.Equal(t, "https://api.gumloop.com", client.config.BaseURL)
	assert.Equal(t, 2*time.Second, client.config.PollInterval)
	assert.Equal(t, 300*time.Second, client.config.MaxWait)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.httpClient)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestSuggestions_PollsUntilDone(t *testing.T) {
	fake := &fakePipeline{
		t:            t,
		pendingPolls: 2,
		finalState:   runStateDone,
		outputs: map[string]interface{}{
			outputRecipes: `[{"name": "Rice Pilaf", "ingredients": [{"name": "Rice", "quantity": 1}]}]`,
		},
	}
	server := httptest.NewServer(fake)
	defer server.Close()

	recipes, err := newTestClient(t, server.URL).Suggestions(context.Background(), "food_name,quantity,unit,food_category\nRice,1,,grain\n")

	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Rice Pilaf", recipes[0].Name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&fake.polls))
	require.Len(t, fake.lastInputs, 1)
	assert.Equal(t, inputPantry, fake.lastInputs[0].InputName)
}

func TestFromURL(t *testing.T) {
	fake := &fakePipeline{
		t:          t,
		finalState: runStateDone,
		outputs:    map[string]interface{}{outputRecipes: map[string]interface{}{"name": "Pad Thai"}},
	}
	server := httptest.NewServer(fake)
	defer server.Close()

	recipe, err := newTestClient(t, server.URL).FromURL(context.Background(), "https://example.com/pad-thai")

	require.NoError(t, err)
	assert.Equal(t, "Pad Thai", recipe.Name)
	assert.Equal(t, pipelineInput{InputName: inputURL, Value: "https://example.com/pad-thai"}, fake.lastInputs[0])
}

func TestSearchByName_RunFailed(t *testing.T) {
	fake := &fakePipeline{t: t, finalState: runStateFailed}
	server := httptest.NewServer(fake)
	defer server.Close()

	_, err := newTestClient(t, server.URL).SearchByName(context.Background(), "carbonara")

	require.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestRunPipeline_Timeout(t *testing.T) {
	fake := &fakePipeline{t: t, pendingPolls: 1 << 20, finalState: runStateDone}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.config.MaxWait = 20 * time.Millisecond

	_, err := client.SearchByName(context.Background(), "soup")

	assert.ErrorIs(t, err, domain.ErrPipelineTimeout)
}

func TestRunPipeline_RetriesServerErrors(t *testing.T) {
	t.Run("recovers after transient failures", func(t *testing.T) {
		fake := &fakePipeline{
			t:           t,
			finalState:  runStateDone,
			startStatus: []int{http.StatusBadGateway, http.StatusTooManyRequests},
			outputs:     map[string]interface{}{outputRecipes: `[]`},
		}
		server := httptest.NewServer(fake)
		defer server.Close()

		recipes, err := newTestClient(t, server.URL).SearchByName(context.Background(), "soup")

		require.NoError(t, err)
		assert.Empty(t, recipes)
		assert.Equal(t, int32(3), atomic.LoadInt32(&fake.starts))
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		fake := &fakePipeline{
			t:           t,
			startStatus: []int{500, 500, 500},
		}
		server := httptest.NewServer(fake)
		defer server.Close()

		_, err := newTestClient(t, server.URL).SearchByName(context.Background(), "soup")

		assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
		assert.Equal(t, int32(3), atomic.LoadInt32(&fake.starts))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		fake := &fakePipeline{
			t:           t,
			startStatus: []int{http.StatusUnauthorized},
		}
		server := httptest.NewServer(fake)
		defer server.Close()

		_, err := newTestClient(t, server.URL).SearchByName(context.Background(), "soup")

		assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
		assert.Equal(t, int32(1), atomic.LoadInt32(&fake.starts))
	})
}

func TestRunPipeline_NotConfigured(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil)

	_, err := client.Suggestions(context.Background(), "csv")

	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
}

func TestExtract(t *testing.T) {
	fake := &fakePipeline{
		t:          t,
		finalState: runStateDone,
		outputs: map[string]interface{}{
			outputReceiptLegacy: "food_name,quantity,unit,food_category\nBananas,2.52,null,Fruits\n",
		},
	}
	server := httptest.NewServer(fake)
	defer server.Close()

	items, err := newTestClient(t, server.URL).Extract(context.Background(), []byte("jpeg-bytes"), "receipt.jpg")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Bananas", items[0].Name)
	assert.Equal(t, domain.CategoryFruit, items[0].Category)

	assert.Equal(t, "receipt.jpg", fake.lastUpload.FileName)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), fake.lastUpload.FileContent)
	assert.Equal(t, pipelineInput{InputName: inputFileName, Value: "stored-receipt.jpg"}, fake.lastInputs[0])
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
