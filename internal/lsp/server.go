// Package lsp serves StyleSense diagnostics, quick fixes and formatting over
// the Language Server Protocol.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"stylesense/internal/analysis"
	"stylesense/internal/config"
	"stylesense/internal/lang"
	"stylesense/internal/logging"
	"stylesense/internal/rules"
)

// ServerName is reported in serverInfo and as the diagnostic source.
const ServerName = "stylesense"

// ErrExitWithoutShutdown is returned by Serve when the client sends "exit"
// before "shutdown".
var ErrExitWithoutShutdown = errors.New("exit received before shutdown")

// Options configures a Server.
type Options struct {
	// Workspace is the root used for config reloads and the start-up check.
	// The client's rootUri fills it in when empty.
	Workspace string
	// ConfigPath pins the config file. Empty means <workspace>/.stylesense.yaml.
	ConfigPath string
	Config     *config.Config
	Registry   *rules.Registry
	Version    string
}

// Server is a StyleSense language server. A Server handles one connection.
type Server struct {
	mu         sync.RWMutex
	opts       Options
	workspace  string
	cfg        *config.Config
	analyzer   *analysis.Analyzer
	documents  map[string]*document
	registry   *rules.Registry
	configPath string

	initialized bool
	shutdown    bool

	writeMu sync.Mutex
	out     io.Writer

	bg sync.WaitGroup
}

type document struct {
	uri      string
	version  int
	language lang.Language
	content  []byte
	result   *analysis.Result
}

// NewServer builds a server and its analyzer.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Registry == nil {
		opts.Registry = rules.Default()
	}
	a, err := analysis.New(opts.Config, opts.Registry)
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:       opts,
		workspace:  opts.Workspace,
		cfg:        opts.Config,
		analyzer:   a,
		documents:  make(map[string]*document),
		registry:   opts.Registry,
		configPath: opts.ConfigPath,
	}, nil
}

// ServeStdio runs the server on stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

type inbound struct {
	body []byte
	err  error
}

// Serve reads framed messages from r and writes responses and notifications
// to w until the client exits, the stream ends or ctx is cancelled.
// Messages are handled in arrival order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = w
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.bg.Wait()
	}()

	msgs := make(chan inbound)
	go func() {
		br := bufio.NewReader(r)
		for {
			body, err := readMessage(br)
			select {
			case msgs <- inbound{body: body, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	logging.LSP("language server started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-msgs:
			if in.err != nil {
				if errors.Is(in.err, io.EOF) {
					logging.LSP("client closed the stream")
					return nil
				}
				logging.LSPError("read failed: %v", in.err)
				return in.err
			}
			exit, err := s.handleMessage(ctx, in.body)
			if exit {
				return err
			}
		}
	}
}

// handleMessage decodes and dispatches one message. It reports true when
// the client asked the server to exit.
func (s *Server) handleMessage(ctx context.Context, body []byte) (bool, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		logging.LSPWarn("undecodable message: %v", err)
		s.replyError(json.RawMessage("null"), CodeParseError, "parse error: "+err.Error())
		return false, nil
	}

	if req.Method == "exit" {
		s.mu.RLock()
		clean := s.shutdown
		s.mu.RUnlock()
		logging.LSP("exit (after shutdown: %v)", clean)
		if clean {
			return true, nil
		}
		return true, ErrExitWithoutShutdown
	}

	timer := logging.StartTimer(logging.CategoryLSP, req.Method)
	defer timer.Stop()

	result, rpcErr := s.dispatch(ctx, &req)
	if req.IsNotification() {
		if rpcErr != nil && rpcErr.Code != CodeMethodNotFound {
			logging.LSPWarn("%s: %s", req.Method, rpcErr.Message)
		}
		return false, nil
	}
	if rpcErr != nil {
		s.replyError(req.ID, rpcErr.Code, rpcErr.Message)
		return false, nil
	}
	s.reply(req.ID, result)
	return false, nil
}

func (s *Server) dispatch(ctx context.Context, req *Request) (interface{}, *ResponseError) {
	s.mu.RLock()
	initialized, shutdown := s.initialized, s.shutdown
	s.mu.RUnlock()

	if shutdown {
		return nil, &ResponseError{Code: CodeInvalidRequest, Message: "server is shutting down"}
	}
	if !initialized && req.Method != "initialize" {
		return nil, &ResponseError{Code: CodeServerNotInitialized, Message: "server not initialized"}
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.Params)
	case "initialized":
		s.handleInitialized(ctx)
		return nil, nil
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		logging.LSP("shutdown requested")
		return nil, nil
	case "textDocument/didOpen":
		return nil, s.handleDidOpen(ctx, req.Params)
	case "textDocument/didChange":
		return nil, s.handleDidChange(ctx, req.Params)
	case "textDocument/didSave":
		return nil, s.handleDidSave(ctx, req.Params)
	case "textDocument/didClose":
		return nil, s.handleDidClose(req.Params)
	case "textDocument/codeAction":
		return s.handleCodeAction(req.Params)
	case "textDocument/formatting":
		return s.handleFormatting(req.Params)
	case "textDocument/hover":
		return s.handleHover(req.Params)
	case "workspace/didChangeConfiguration":
		s.handleDidChangeConfiguration(ctx)
		return nil, nil
	default:
		logging.LSPDebug("unhandled method %s", req.Method)
		return nil, &ResponseError{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

// decode unmarshals params or returns InvalidParams.
func decode(raw json.RawMessage, v interface{}) *ResponseError {
	if len(raw) == 0 {
		return &ResponseError{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ResponseError{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return nil
}

func (s *Server) reply(id json.RawMessage, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.replyError(id, CodeInternalError, err.Error())
		return
	}
	s.send(Response{JSONRPC: "2.0", ID: id, Result: raw})
}

func (s *Server) replyError(id json.RawMessage, code int, msg string) {
	s.send(Response{JSONRPC: "2.0", ID: id, Error: &ResponseError{Code: code, Message: msg}})
}

func (s *Server) notify(method string, params interface{}) {
	s.send(Notification{JSONRPC: "2.0", Method: method, Params: params})
}

func (s *Server) send(msg interface{}) {
	body, err := json.Marshal(msg)
	if err != nil {
		logging.LSPError("marshal outgoing message: %v", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := writeMessage(s.out, body); err != nil {
		logging.LSPError("write failed: %v", err)
	}
}

// analyzerSnapshot returns the current analyzer.
func (s *Server) analyzerSnapshot() *analysis.Analyzer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzer
}

func (s *Server) configFile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.configPath != "" {
		return s.configPath
	}
	if s.workspace == "" {
		return ""
	}
	return filepath.Join(s.workspace, config.FileName)
}
