package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/pixel-cleanup/internal/cleaner"
	"github.com/ironsheep/pixel-cleanup/internal/imageio"
	"github.com/ironsheep/pixel-cleanup/internal/worker"
)

// Server handles MCP protocol communication
type Server struct {
	cfg     Config
	cache   *imageio.Cache
	pool    *worker.Pool
	exec    worker.Executor
	cleaner *cleaner.Cleaner
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server with DefaultConfig.
func New() *Server {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a server. Unless cfg.Workers is negative, a worker
// pool is started for images of at least cfg.OffloadPixels pixels; if the
// pool cannot start every operation runs locally.
func NewWithConfig(cfg Config) *Server {
	s := &Server{
		cfg:   cfg,
		cache: imageio.NewCache(),
	}

	local := worker.NewLocal(cleaner.Registry())
	var transport worker.Transport
	if cfg.Workers >= 0 {
		s.pool = worker.NewPool(cfg.Workers, cleaner.Registry())
		if err := s.pool.Init(); err != nil {
			log.Printf("Warning: worker pool unavailable, running locally: %v", err)
		} else {
			transport = s.pool
		}
	}
	s.exec = worker.NewFallback(transport, local, cfg.OffloadPixels)
	s.cleaner = cleaner.New(s.exec)

	if cfg.Debug() && s.pool != nil {
		log.Printf("Worker pool started with %d workers, offload threshold %d pixels", s.pool.Workers(), cfg.OffloadPixels)
	}
	return s
}

// Close stops the worker pool.
func (s *Server) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from in and writes responses
// to out until in is exhausted.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Base64 previews can make requests large
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		if s.cfg.Debug() {
			log.Printf("Request: %s", req.Method)
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "pixel-cleanup",
				"version": "0.1.0",
			},
		},
	}
}

// handleToolsList returns every tool definition
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
