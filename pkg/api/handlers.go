package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/ssargent/bytekit/internal/logger"
	"github.com/ssargent/bytekit/pkg/storage"
	"github.com/ssargent/bytekit/pkg/structfmt"
)

const (
	defaultScanLimit = 100
	maxScanLimit     = 10000
	maxBodyBytes     = 32 << 20
)

// Server holds the API server state
type Server struct {
	db      *storage.DB
	codec   *structfmt.Codec
	config  ServerConfig
	metrics *Metrics
	logger  logger.Logger
}

// NewServer creates a new API server. Pack and unpack requests use the
// database's codec.
func NewServer(db *storage.DB, config ServerConfig, metrics *Metrics, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		db:      db,
		codec:   db.Codec(),
		config:  config,
		metrics: metrics,
		logger:  log,
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var formatErr *structfmt.FormatError
	var argErr *structfmt.ArgError

	switch {
	case errors.Is(err, storage.ErrKeyNotFound), errors.Is(err, storage.ErrTreeNotFound):
		return http.StatusNotFound
	case errors.As(err, &formatErr), errors.As(err, &argErr),
		errors.Is(err, structfmt.ErrInsufficientData),
		errors.Is(err, structfmt.ErrBufferOverflow),
		errors.Is(err, storage.ErrInvalidTreeName),
		errors.Is(err, storage.ErrDefaultTree):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	sendError(w, err.Error(), status)
}

// observe records a storage operation and returns err unchanged.
func (s *Server) observe(operation string, start time.Time, err error) error {
	s.metrics.RecordDBOperation(operation, err == nil || errors.Is(err, storage.ErrKeyNotFound), time.Since(start))
	return err
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

func pathParam(r *http.Request, name string) (string, error) {
	return url.PathUnescape(chi.URLParam(r, name))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	var req PackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	data, err := s.codec.Pack(req.Format, req.Args...)
	s.metrics.RecordCodecOperation("pack", err == nil, len(data))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, PackResponse{Data: data, Size: len(data)})
}

func (s *Server) handleUnpack(w http.ResponseWriter, r *http.Request) {
	var req UnpackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	values, err := s.codec.Unpack(req.Format, req.Data)
	s.metrics.RecordCodecOperation("unpack", err == nil, len(req.Data))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, UnpackResponse{Values: DisplayValues(values)})
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	names, err := s.db.TreeNames()
	if s.observe("trees", start, err) != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, map[string]interface{}{"trees": names, "count": len(names)})
}

// lookupTree resolves the {tree} parameter. Reads never create trees.
func (s *Server) lookupTree(r *http.Request, create bool) (*storage.Tree, error) {
	name, err := pathParam(r, "tree")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidTreeName, err)
	}
	if create {
		return s.db.OpenTree(name)
	}
	return s.db.LookupTree(name)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tree, err := s.lookupTree(r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	key, err := pathParam(r, "key")
	if err != nil {
		sendError(w, "Invalid key", http.StatusBadRequest)
		return
	}

	resp := EntryResponse{Key: key}
	if format := r.URL.Query().Get("format"); format != "" {
		var values []interface{}
		values, err = tree.GetStruct([]byte(key), format)
		resp.Values = DisplayValues(values)
	} else {
		resp.Value, err = tree.Get([]byte(key))
	}
	if s.observe("get", start, err) != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, resp)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := pathParam(r, "key")
	if err != nil || key == "" {
		sendError(w, "Key is required", http.StatusBadRequest)
		return
	}
	tree, err := s.lookupTree(r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if format := r.URL.Query().Get("format"); format != "" {
		var req PackRequest
		if err := decodeJSON(w, r, &req); err != nil {
			sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
			return
		}
		err = tree.InsertStruct([]byte(key), format, req.Args...)
	} else {
		var body []byte
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			sendError(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		err = tree.Insert([]byte(key), body)
	}
	if s.observe("put", start, err) != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, map[string]string{"tree": tree.Name(), "key": key})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tree, err := s.lookupTree(r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	key, err := pathParam(r, "key")
	if err != nil {
		sendError(w, "Invalid key", http.StatusBadRequest)
		return
	}

	removed, err := tree.Remove([]byte(key))
	if s.observe("delete", start, err) != nil {
		s.fail(w, r, err)
		return
	}
	if !removed {
		s.fail(w, r, storage.ErrKeyNotFound)
		return
	}
	sendSuccess(w, map[string]string{"tree": tree.Name(), "key": key})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()

	limit := defaultScanLimit
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxScanLimit {
			sendError(w, fmt.Sprintf("limit must be between 1 and %d", maxScanLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	_, hasStart := query["start"]
	_, hasEnd := query["end"]
	if hasStart != hasEnd {
		sendError(w, "start and end must be given together", http.StatusBadRequest)
		return
	}

	tree, err := s.lookupTree(r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var it storage.Iterator
	if hasStart {
		it, err = tree.Range([]byte(query.Get("start")), []byte(query.Get("end")))
	} else {
		it, err = tree.ScanPrefix([]byte(query.Get("prefix")))
	}
	if err != nil {
		s.fail(w, r, s.observe("scan", start, err))
		return
	}

	entries, err := storage.Collect(it, limit)
	if s.observe("scan", start, err) != nil {
		s.fail(w, r, err)
		return
	}

	resp := ScanResponse{Tree: tree.Name(), Entries: make([]EntryResponse, 0, len(entries)), Count: len(entries)}
	format := query.Get("format")
	for _, e := range entries {
		entry := EntryResponse{Key: string(e.Key)}
		if format == "" {
			entry.Value = e.Value
		} else {
			values, err := tree.Unpack(format, e.Value)
			if err != nil {
				s.fail(w, r, fmt.Errorf("value of %q: %w", e.Key, err))
				return
			}
			entry.Values = DisplayValues(values)
		}
		resp.Entries = append(resp.Entries, entry)
	}
	sendSuccess(w, resp)
}

func (s *Server) handleChecksum(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sum, err := s.db.Checksum()
	if s.observe("checksum", start, err) != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, map[string]string{"checksum": fmt.Sprintf("%016x", sum)})
}

func (s *Server) handleGenerateID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := s.db.GenerateID()
	if s.observe("generate_id", start, err) != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, map[string]uint64{"id": id})
}
