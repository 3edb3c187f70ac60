// Package mcp routes tool calls: it holds the tool catalogue, checks required
// arguments, runs each call inside a timeout and turns results and errors into
// one uniform reply. binding.go exposes the router over the MCP stdio transport.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/journal"
	"github.com/vthunder/chronos/internal/logging"
	"github.com/vthunder/chronos/internal/observability"
)

// DefaultTimeout is the per-call budget when none is configured
const DefaultTimeout = 60 * time.Second

// ToolDef describes a tool's input schema
type ToolDef struct {
	Description string
	Properties  map[string]PropDef
	Required    []string
}

// PropDef describes one argument
type PropDef struct {
	Type        string // string, integer, number, boolean, array
	Description string
	Enum        []string
	Items       string // element type for arrays
}

// Call executes a bound tool call
type Call func(ctx context.Context) (any, error)

// ToolHandler validates arguments and returns the call to execute
type ToolHandler func(args map[string]any) (Call, error)

// Tool is a registered catalogue entry
type Tool struct {
	Name string
	Def  ToolDef
}

type registration struct {
	def     ToolDef
	handler ToolHandler
}

// Server dispatches tool calls to registered handlers
type Server struct {
	name    string
	version string
	timeout time.Duration
	journal *journal.Journal

	tools map[string]registration
	order []string
}

// Option configures a Server
type Option func(*Server)

// WithTimeout sets the per-call budget
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithJournal records every call in j
func WithJournal(j *journal.Journal) Option {
	return func(s *Server) { s.journal = j }
}

// NewServer creates a router advertised under name and version
func NewServer(name, version string, opts ...Option) *Server {
	s := &Server{
		name:    name,
		version: version,
		timeout: DefaultTimeout,
		tools:   make(map[string]registration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the advertised server name
func (s *Server) Name() string { return s.name }

// Version returns the advertised server version
func (s *Server) Version() string { return s.version }

// Timeout returns the per-call budget
func (s *Server) Timeout() time.Duration { return s.timeout }

// RegisterTool registers a tool with its schema and handler
func (s *Server) RegisterTool(name string, def ToolDef, handler ToolHandler) {
	if _, exists := s.tools[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tools[name] = registration{def: def, handler: handler}
}

// Tools returns the catalogue in registration order
func (s *Server) Tools() []Tool {
	out := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Tool{Name: name, Def: s.tools[name].def})
	}
	return out
}

// ReplyError is the error payload of a reply
type ReplyError struct {
	Code    int         `json:"code"`
	Kind    apperr.Kind `json:"error"`
	Message string      `json:"message"`
}

// Reply is the outcome of one call: exactly one of Result or Error is meaningful
type Reply struct {
	Result any
	Error  *ReplyError
}

// OK reports whether the call succeeded
func (r Reply) OK() bool { return r.Error == nil }

func errorReply(err error) Reply {
	kind := apperr.KindOf(err)
	return Reply{Error: &ReplyError{Code: kind.Code(), Kind: kind, Message: err.Error()}}
}

// Dispatch runs one tool call to completion and returns exactly one reply.
// It never panics and never returns an error.
func (s *Server) Dispatch(ctx context.Context, name string, args map[string]any) Reply {
	start := time.Now()
	logging.Info("mcp", "Tool called: %s (timeout: %s)", name, s.timeout)
	logging.Debug("mcp", "Arguments for %s: %s", name, logging.Preview(args, 200))

	reply, phase := s.dispatch(ctx, name, args)
	s.finish(name, reply, phase, time.Since(start))
	return reply
}

func (s *Server) dispatch(ctx context.Context, name string, args map[string]any) (Reply, journal.Phase) {
	reg, ok := s.tools[name]
	if !ok {
		return errorReply(apperr.New(apperr.KindUnknownOperation, "Unknown tool: %s", name)), journal.PhaseValidating
	}
	if args == nil {
		args = map[string]any{}
	}

	if missing := missingRequired(reg.def.Required, args); len(missing) > 0 {
		if len(missing) == 1 {
			return errorReply(apperr.New(apperr.KindInvalidArgument, "Missing required argument: %s", missing[0])), journal.PhaseValidating
		}
		return errorReply(apperr.New(apperr.KindInvalidArgument,
			"Missing required arguments: %s", strings.Join(missing, ", "))), journal.PhaseValidating
	}

	call, err := bind(reg.handler, args)
	if err != nil {
		if !apperr.KindOf(err).IsInvalidArgument() {
			err = apperr.Wrap(apperr.KindInvalidArgument, err, "Invalid arguments for %s", name)
		}
		return errorReply(err), journal.PhaseValidating
	}

	result, err := s.execute(ctx, name, call)
	if err != nil {
		return errorReply(err), journal.PhaseExecuting
	}
	return Reply{Result: result}, journal.PhaseExecuting
}

func sortedKeys(m map[string]PropDef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// missingRequired lists required keys that are absent, null or empty strings
func missingRequired(required []string, args map[string]any) []string {
	var missing []string
	for _, key := range required {
		v, ok := args[key]
		if !ok || v == nil {
			missing = append(missing, key)
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func bind(handler ToolHandler, args map[string]any) (call Call, err error) {
	defer func() {
		if r := recover(); r != nil {
			call, err = nil, apperr.New(apperr.KindInvalidArgument, "invalid arguments: %v", r)
		}
	}()
	return handler(args)
}

type outcome struct {
	result any
	err    error
}

// execute races call against the timeout. On timeout the call keeps running
// in the background; only the wait is abandoned.
func (s *Server) execute(ctx context.Context, name string, call Call) (any, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: apperr.New(apperr.KindOperationFailed, "%v", r)}
			}
		}()
		result, err := call(context.WithoutCancel(tctx))
		var categorised *apperr.Error
		if err != nil && !errors.As(err, &categorised) {
			err = apperr.Wrap(apperr.KindOperationFailed, err, "Error processing %s", name)
		}
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindOperationFailed, ctx.Err(), "Tool %s was cancelled", name)
		}
		return nil, apperr.New(apperr.KindTimedOut, "Tool %s timed out after %s", name, formatTimeout(s.timeout))
	}
}

func formatTimeout(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d seconds", int64(d/time.Second))
	}
	return d.String()
}

func (s *Server) finish(name string, reply Reply, phase journal.Phase, elapsed time.Duration) {
	entry := journal.Entry{
		Tool:       name,
		Outcome:    journal.OutcomeSucceeded,
		DurationMS: elapsed.Milliseconds(),
	}
	if reply.Error != nil {
		entry.Outcome = journal.OutcomeFailed
		if reply.Error.Kind == apperr.KindTimedOut {
			entry.Outcome = journal.OutcomeTimedOut
		}
		entry.Phase = phase
		entry.Code = reply.Error.Code
		entry.Error = reply.Error.Message
		logging.Info("mcp", "Tool %s failed (%d %s) after %s: %s",
			name, reply.Error.Code, reply.Error.Kind, elapsed.Round(time.Millisecond), logging.Truncate(reply.Error.Message, 200))
	} else {
		logging.Info("mcp", "Tool %s succeeded in %s", name, elapsed.Round(time.Millisecond))
	}

	observability.RecordToolCall(name, string(entry.Outcome), elapsed)
	if err := s.journal.Log(entry); err != nil {
		logging.Warn("mcp", "failed to journal %s call: %v", name, err)
	}
}
