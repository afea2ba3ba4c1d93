// Package mcp serves the search and statistics tools over the MCP stdio
// transport (newline-delimited JSON-RPC 2.0).
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"efb/internal/efinance"
	e "efb/internal/errors"

	"go.uber.org/zap"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "efb-monitor-mcp"
	ServerVersion   = "1.0.0"
)

var errEmptyLine = stderrors.New("empty line")

// Service is what the tools call into; *efinance.Service implements it.
type Service interface {
	Search(ctx context.Context, args efinance.SearchArgs) (string, error)
	Statistics(ctx context.Context, refresh bool) (string, error)
}

// Server handles MCP requests over a reader/writer pair, usually stdin/stdout.
type Server struct {
	svc    Service
	logger *zap.Logger
	in     *bufio.Reader
	out    *bufio.Writer
	outMu  sync.Mutex
	tools  []Tool
}

func NewServer(svc Service, in io.Reader, out io.Writer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:    svc,
		logger: logger.Named("mcp"),
		in:     bufio.NewReader(in),
		out:    bufio.NewWriter(out),
		tools:  Tools,
	}
}

// Serve runs the read/dispatch/write loop until the input ends, an exit
// notification arrives or ctx is cancelled. Requests are handled
// concurrently; Serve waits for in-flight ones before returning.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			line, err := s.in.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err == io.EOF {
				return nil
			}
			return err
		case line := <-lines:
			req, err := parseMessage(line)
			if err != nil {
				s.logger.Warn("failed to parse message", zap.Error(err))
				if werr := s.writeMessage(Response{
					JSONRPC: "2.0",
					Error:   &ResponseError{Code: CodeParseError, Message: "parse error"},
				}); werr != nil {
					s.logger.Error("failed to write message", zap.Error(werr))
				}
				continue
			}

			if req.Method == "notifications/exit" {
				return nil
			}

			wg.Add(1)
			go func(r Request) {
				defer wg.Done()

				resp := s.HandleRequest(ctx, r)
				if resp == nil {
					return
				}
				if err := s.writeMessage(*resp); err != nil {
					s.logger.Error("failed to write message", zap.Error(err))
				}

				if r.Method == "shutdown" {
					cancel()
				}
			}(req)
		}
	}
}

// HandleRequest routes a single request. Notifications get a nil response.
func (s *Server) HandleRequest(ctx context.Context, req Request) *Response {
	switch req.Method {
	case "initialize":
		return s.reply(req, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities: map[string]any{
				"tools": map[string]any{},
			},
			ServerInfo: map[string]any{
				"name":    ServerName,
				"version": ServerVersion,
			},
		})
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "tools/list":
		return s.reply(req, ListToolsResult{Tools: s.tools})
	case "tools/call":
		return s.handleToolCall(ctx, req)
	case "ping":
		return s.reply(req, map[string]any{})
	case "shutdown":
		return s.reply(req, map[string]any{})
	}

	if req.IsNotification() {
		return nil
	}
	return s.error(req, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
}

func (s *Server) handleToolCall(ctx context.Context, req Request) *Response {
	var params ToolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.error(req, CodeInvalidParams, "invalid params", err.Error())
		}
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	log := s.logger.With(zap.String("tool", params.Name))

	var (
		text string
		err  error
	)
	switch params.Name {
	case ToolSearch:
		var args efinance.SearchArgs
		args, err = efinance.ValidateSearchArgs(params.Arguments)
		if err == nil {
			text, err = s.svc.Search(ctx, args)
		}
	case ToolStatistics:
		text, err = s.svc.Statistics(ctx, efinance.RefreshArg(params.Arguments))
	default:
		return s.error(req, CodeMethodNotFound, fmt.Sprintf("알 수 없는 도구: %s", params.Name), nil)
	}

	if err != nil {
		log.Warn("tool call failed", zap.String("kind", e.Label(err)),
			zap.Error(err), zap.NamedError("cause", e.Cause(err)))
		pub := e.Public(err)
		return s.error(req, ErrorCode(pub), pub.Error(), map[string]string{"kind": e.Label(pub)})
	}

	log.Debug("tool call done", zap.Int("bytes", len(text)))
	return s.reply(req, ToolCallResult{
		Content: []ContentItem{{Type: "text", Text: text}},
	})
}

// ErrorCode maps an error kind to its JSON-RPC code.
func ErrorCode(err error) int {
	if stderrors.Is(err, e.ErrInvalidArgument) {
		return CodeInvalidParams
	}
	return CodeInternalError
}

func (s *Server) reply(req Request, result any) *Response {
	if req.IsNotification() {
		return nil
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

func (s *Server) error(req Request, code int, message string, data any) *Response {
	if req.IsNotification() {
		return nil
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error: &ResponseError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func parseMessage(line []byte) (Request, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Request{}, errEmptyLine
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("json parse error: %w", err)
	}
	return req, nil
}

// writeMessage sends one JSON message followed by a newline.
func (s *Server) writeMessage(resp Response) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := s.out.Write(payload); err != nil {
		return err
	}
	if err := s.out.WriteByte('\n'); err != nil {
		return err
	}
	return s.out.Flush()
}
