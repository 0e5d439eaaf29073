package api

import "time"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PackRequest asks the server to pack args according to format
type PackRequest struct {
	Format string        `json:"format"`
	Args   []interface{} `json:"args"`
}

// PackResponse carries a packed blob as base64
type PackResponse struct {
	Data []byte `json:"data"`
	Size int    `json:"size"`
}

// UnpackRequest asks the server to unpack a base64 blob
type UnpackRequest struct {
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// UnpackResponse holds decoded values in directive order
type UnpackResponse struct {
	Values []interface{} `json:"values"`
}

// EntryResponse is a single tree entry. Values is set when the request named
// a format.
type EntryResponse struct {
	Key    string        `json:"key"`
	Value  []byte        `json:"value,omitempty"`
	Values []interface{} `json:"values,omitempty"`
}

// ScanResponse is the result of a prefix or range scan
type ScanResponse struct {
	Tree    string          `json:"tree"`
	Entries []EntryResponse `json:"entries"`
	Count   int             `json:"count"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port            int
	Bind            string
	APIKey          string
	ShutdownTimeout time.Duration // defaults to 10s
	StatsInterval   time.Duration // defaults to 30s
}
