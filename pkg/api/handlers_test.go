package api

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bytekit/pkg/storage"
)

const testAPIKey = "test-key"

type rawResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	server  *Server
	db      *storage.DB
	handler http.Handler
	reg     *prometheus.Registry
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := storage.Open(t.TempDir(), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := prometheus.NewRegistry()
	server := NewServer(db, ServerConfig{APIKey: testAPIKey}, NewMetrics(reg), nil)

	return &testServer{server: server, db: db, handler: server.Router(reg), reg: reg}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, rawResponse) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()

	ts.handler.ServeHTTP(w, req)

	var resp rawResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func decodeData[T any](t *testing.T, resp rawResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func TestServer_Health(t *testing.T) {
	ts := setupTestServer(t)

	code, resp := ts.do(t, "GET", "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]string{"status": "healthy"}, decodeData[map[string]string](t, resp))
}

func TestServer_RequiresAPIKey(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "metrics stay unprotected")
}

func TestServer_Pack(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedData   []byte
	}{
		{
			name:           "little endian record",
			body:           `{"format": "<H s", "args": [513, "hi"]}`,
			expectedStatus: http.StatusOK,
			expectedData:   []byte{0x01, 0x02, 0x02, 0x00, 'h', 'i'},
		},
		{
			name:           "numeric string argument",
			body:           `{"format": ">l", "args": ["-2"]}`,
			expectedStatus: http.StatusOK,
			expectedData:   []byte{0xff, 0xff, 0xff, 0xfe},
		},
		{
			name:           "unknown option",
			body:           `{"format": "Q", "args": [1]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing argument",
			body:           `{"format": "B B", "args": [1]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "fractional integer truncates",
			body:           `{"format": "B", "args": [1.5]}`,
			expectedStatus: http.StatusOK,
			expectedData:   []byte{0x01},
		},
		{
			name:           "digit separator rejected",
			body:           `{"format": "B", "args": ["1_0"]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           `{"format":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := ts.do(t, "POST", "/api/v1/pack", tt.body)
			require.Equal(t, tt.expectedStatus, code, resp.Error)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				assert.NotEmpty(t, resp.Error)
				return
			}
			packed := decodeData[PackResponse](t, resp)
			assert.Equal(t, tt.expectedData, packed.Data)
			assert.Equal(t, len(tt.expectedData), packed.Size)
		})
	}
}

func TestServer_Unpack(t *testing.T) {
	ts := setupTestServer(t)

	data := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x02, 0x00, 'h', 'i', 0xff})
	code, resp := ts.do(t, "POST", "/api/v1/unpack", `{"format": "<H s B", "data": "`+data+`"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	unpacked := decodeData[UnpackResponse](t, resp)
	assert.Equal(t, []interface{}{float64(513), "hi", float64(255)}, unpacked.Values)

	code, resp = ts.do(t, "POST", "/api/v1/unpack", `{"format": "<L", "data": "AQI="}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "not enough data")
}

func TestServer_KVLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	code, resp := ts.do(t, "PUT", "/api/v1/trees/users/kv/alice", "admin")
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = ts.do(t, "GET", "/api/v1/trees/users/kv/alice", "")
	require.Equal(t, http.StatusOK, code, resp.Error)
	entry := decodeData[EntryResponse](t, resp)
	assert.Equal(t, "alice", entry.Key)
	assert.Equal(t, []byte("admin"), entry.Value)

	code, _ = ts.do(t, "GET", "/api/v1/trees/users/kv/bob", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, "GET", "/api/v1/trees/nope/kv/alice", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, "DELETE", "/api/v1/trees/users/kv/alice", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, "DELETE", "/api/v1/trees/users/kv/alice", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_StructValues(t *testing.T) {
	ts := setupTestServer(t)

	code, resp := ts.do(t, "PUT", "/api/v1/trees/points/kv/p1?format=%3Cl%20l", `{"args": [-3, 4]}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	tree, err := ts.db.LookupTree("points")
	require.NoError(t, err)
	raw, err := tree.Get([]byte("p1"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfd, 0xff, 0xff, 0xff, 4, 0, 0, 0}, raw)

	code, resp = ts.do(t, "GET", "/api/v1/trees/points/kv/p1?format=%3Cl%20l", "")
	require.Equal(t, http.StatusOK, code, resp.Error)
	entry := decodeData[EntryResponse](t, resp)
	assert.Equal(t, []interface{}{float64(-3), float64(4)}, entry.Values)

	code, _ = ts.do(t, "GET", "/api/v1/trees/points/kv/p1?format=%3Cl%20l%20l", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, "PUT", "/api/v1/trees/points/kv/p2?format=B", `{"args": ["x"]}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_Scan(t *testing.T) {
	ts := setupTestServer(t)

	tree, err := ts.db.OpenTree("items")
	require.NoError(t, err)
	for _, k := range []string{"a1", "a2", "b1", "b2", "c1"} {
		require.NoError(t, tree.InsertStruct([]byte(k), "<B", len(k)))
	}

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedKeys   []string
	}{
		{name: "prefix", query: "prefix=a", expectedStatus: http.StatusOK, expectedKeys: []string{"a1", "a2"}},
		{name: "all", query: "", expectedStatus: http.StatusOK, expectedKeys: []string{"a1", "a2", "b1", "b2", "c1"}},
		{name: "inclusive range", query: "start=a2&end=b2", expectedStatus: http.StatusOK, expectedKeys: []string{"a2", "b1", "b2"}},
		{name: "limit", query: "limit=2", expectedStatus: http.StatusOK, expectedKeys: []string{"a1", "a2"}},
		{name: "half range", query: "start=a", expectedStatus: http.StatusBadRequest},
		{name: "bad limit", query: "limit=0", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := ts.do(t, "GET", "/api/v1/trees/items/scan?"+tt.query, "")
			require.Equal(t, tt.expectedStatus, code, resp.Error)
			if code != http.StatusOK {
				return
			}
			scan := decodeData[ScanResponse](t, resp)
			keys := make([]string, 0, len(scan.Entries))
			for _, e := range scan.Entries {
				keys = append(keys, e.Key)
			}
			assert.Equal(t, tt.expectedKeys, keys)
			assert.Equal(t, len(tt.expectedKeys), scan.Count)
		})
	}

	code, resp := ts.do(t, "GET", "/api/v1/trees/items/scan?prefix=c&format=%3CB", "")
	require.Equal(t, http.StatusOK, code, resp.Error)
	scan := decodeData[ScanResponse](t, resp)
	require.Len(t, scan.Entries, 1)
	assert.Equal(t, []interface{}{float64(2)}, scan.Entries[0].Values)
}

func TestServer_TreesChecksumIDs(t *testing.T) {
	ts := setupTestServer(t)

	_, err := ts.db.OpenTree("extra")
	require.NoError(t, err)

	code, resp := ts.do(t, "GET", "/api/v1/trees", "")
	require.Equal(t, http.StatusOK, code)
	trees := decodeData[map[string]interface{}](t, resp)
	assert.Equal(t, []interface{}{storage.DefaultTreeName, "extra"}, trees["trees"])

	code, resp = ts.do(t, "GET", "/api/v1/checksum", "")
	require.Equal(t, http.StatusOK, code)
	sum := decodeData[map[string]string](t, resp)
	assert.Len(t, sum["checksum"], 16)

	for want := uint64(0); want < 3; want++ {
		code, resp = ts.do(t, "POST", "/api/v1/ids", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, want, decodeData[map[string]uint64](t, resp)["id"])
	}
}

func TestServer_MetricsRecorded(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, "POST", "/api/v1/pack", `{"format": "B", "args": [1]}`)
	ts.server.updateDBStats()

	families, err := ts.reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["bytekit_codec_operations_total"])
	assert.True(t, names["bytekit_http_requests_total"])
	assert.True(t, names["bytekit_db_trees_total"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(storage.ErrKeyNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(storage.ErrInvalidTreeName))
	assert.Equal(t, http.StatusInternalServerError, statusFor(storage.ErrClosed))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}

func TestDisplayValues(t *testing.T) {
	got := DisplayValues([]interface{}{int8(-1), []byte("text"), []byte{0xff, 0xfe}})
	assert.Equal(t, []interface{}{int8(-1), "text", "base64://4="}, got)
}
