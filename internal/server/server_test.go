package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/db"
	"github.com/ziadkadry99/docqa/internal/extract"
	"github.com/ziadkadry99/docqa/internal/history"
	"github.com/ziadkadry99/docqa/internal/ingest"
	"github.com/ziadkadry99/docqa/internal/library"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/qa"
)

type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 256)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(strings.Trim(word, ".,?!")))
			vec[h.Sum32()%256]++
		}
		out[i] = vec
	}
	return out, nil
}

func (wordEmbedder) Dimensions() int { return 256 }
func (wordEmbedder) Name() string    { return "words" }

type echoProvider struct{ calls int }

func (p *echoProvider) Name() string { return "openai" }

func (p *echoProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	return &llm.CompletionResponse{Content: "It is *42*.", InputTokens: 50, OutputTokens: 4}, nil
}

type failingProvider struct{}

func (failingProvider) Name() string { return "flaky" }

func (failingProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("upstream returned 503")
}

type testServer struct {
	srv      *Server
	provider *echoProvider
	hist     *history.Store
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()

	lib := library.New(filepath.Join(t.TempDir(), "vectordb"))
	splitter, err := chunker.New(200, 20)
	if err != nil {
		t.Fatal(err)
	}
	ing := ingest.New(lib, extract.Default(), splitter, wordEmbedder{}, nil)

	// grok stays unconfigured so its provider cannot be built.
	t.Setenv("XAI_API_KEY", "")
	provider := &echoProvider{}
	models := llm.NewRegistry(map[string]llm.Choice{
		"grok": {Provider: "grok", Model: "grok-2-latest"},
	}, "openai", 0)
	models.Register("openai", "gpt-4", provider)
	models.Register("flaky", "gpt-4", failingProvider{})

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	hist := history.NewStore(database)

	answerer := qa.NewAnswerer(
		qa.NewRetriever(lib, wordEmbedder{}, 3, 0.3, nil),
		models,
		qa.Options{MaxExcerpts: 3, MaxTokens: 150, Temperature: 0.2},
		hist,
		nil,
	)
	return &testServer{
		srv:      New(cfg, lib, ing, answerer, hist, nil),
		provider: provider,
		hist:     hist,
	}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) ingest.Result {
	t.Helper()
	var res ingest.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return res
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t, Config{AllowAll: true})

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := ts.do(t, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestUploadLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})
	content := []byte("The invoice total is 42 euros.")

	w := ts.do(t, uploadRequest(t, "invoice.txt", content, map[string]string{
		"name":        "March invoice",
		"description": "utilities",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}
	res := decodeResult(t, w)
	if res.Status != ingest.StatusProcessed || res.Message != ingest.MsgProcessed || res.Chunks != 1 {
		t.Errorf("result = %+v", res)
	}
	key := library.Key("invoice.txt", content)
	if res.Key != key {
		t.Errorf("key = %q, want %q", res.Key, key)
	}

	w = ts.do(t, uploadRequest(t, "invoice.txt", content, nil))
	if w.Code != http.StatusOK || decodeResult(t, w).Status != ingest.StatusDuplicate {
		t.Errorf("duplicate upload: %d %s", w.Code, w.Body.String())
	}

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	var docs []library.Metadata
	if err := json.Unmarshal(w.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(docs) != 1 || docs[0].DocumentName != "March invoice" {
		t.Errorf("list = %+v", docs)
	}

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/"+key, nil))
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	w = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/documents/"+key, nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/"+key, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", w.Code)
	}
	w = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/documents/"+key, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}
}

func TestUploadErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxUploadBytes: 1 << 10})

	tests := []struct {
		name     string
		req      *http.Request
		want     int
		wantMsg  string
		wantStat ingest.Status
	}{
		{
			name:     "empty text",
			req:      uploadRequest(t, "blank.txt", []byte("   \n\n  "), nil),
			want:     http.StatusUnprocessableEntity,
			wantMsg:  ingest.MsgEmpty,
			wantStat: ingest.StatusEmpty,
		},
		{
			name:     "unsupported format",
			req:      uploadRequest(t, "tool.exe", []byte("MZ"), nil),
			want:     http.StatusBadRequest,
			wantMsg:  "Error processing file: ",
			wantStat: ingest.StatusFailed,
		},
		{
			name:     "missing file",
			req:      uploadRequest(t, "", nil, map[string]string{"name": "x"}),
			want:     http.StatusBadRequest,
			wantMsg:  "No file provided.",
			wantStat: ingest.StatusFailed,
		},
		{
			name:     "too large",
			req:      uploadRequest(t, "big.txt", bytes.Repeat([]byte("a "), 2<<10), nil),
			want:     http.StatusRequestEntityTooLarge,
			wantStat: ingest.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			res := decodeResult(t, w)
			if res.Status != tt.wantStat {
				t.Errorf("status field = %q, want %q", res.Status, tt.wantStat)
			}
			if !strings.HasPrefix(res.Message, tt.wantMsg) {
				t.Errorf("message = %q, want prefix %q", res.Message, tt.wantMsg)
			}
		})
	}
}

func TestAskAndSearch(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.do(t, uploadRequest(t, "invoice.txt", []byte("The invoice total is 42 euros."), nil))

	body := strings.NewReader(`{"question":"What is the invoice total?"}`)
	w := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/ask", body))
	if w.Code != http.StatusOK {
		t.Fatalf("ask status = %d: %s", w.Code, w.Body.String())
	}
	var ans qa.Answer
	if err := json.Unmarshal(w.Body.Bytes(), &ans); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if ans.Text != "It is *42*." || !strings.Contains(ans.HTML, "<em>42</em>") {
		t.Errorf("answer = %q / %q", ans.Text, ans.HTML)
	}
	if len(ans.Excerpts) != 1 {
		t.Errorf("excerpts = %+v", ans.Excerpts)
	}
	if ts.provider.calls != 1 {
		t.Errorf("provider calls = %d", ts.provider.calls)
	}

	entries, err := ts.hist.List(context.Background(), history.Filter{})
	if err != nil || len(entries) != 1 {
		t.Errorf("history = %v, %v", entries, err)
	}

	w = ts.do(t, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"invoice total"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var excerpts []qa.Excerpt
	if err := json.Unmarshal(w.Body.Bytes(), &excerpts); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(excerpts) != 1 || excerpts[0].Filename != "invoice.txt" {
		t.Errorf("search = %+v", excerpts)
	}

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if w.Code != http.StatusOK {
		t.Errorf("history status = %d", w.Code)
	}
}

func TestAskErrors(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.do(t, uploadRequest(t, "invoice.txt", []byte("The invoice total is 42 euros."), nil))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"empty question", `{"question":"  "}`, http.StatusBadRequest},
		{"unknown model", `{"question":"hi","model":"claude"}`, http.StatusBadRequest},
		{"unconfigured provider", `{"question":"invoice total?","model":"grok"}`, http.StatusInternalServerError},
		{"upstream failure", `{"question":"invoice total?","model":"flaky"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(tt.body)))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	w := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":""}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty search status = %d", w.Code)
	}
}

func TestWebSocketAsk(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.do(t, uploadRequest(t, "invoice.txt", []byte("The invoice total is 42 euros."), nil))

	hs := httptest.NewServer(ts.srv.Router())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsRequest{Type: "ask", Content: "invoice total?"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "response" || resp.Content != "It is *42*." {
		t.Errorf("response = %+v", resp)
	}

	if err := conn.WriteJSON(wsRequest{Type: "shout", Content: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("expected error for unknown type, got %+v", resp)
	}
}
