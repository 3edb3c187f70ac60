package mcp

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/journal"
)

func echoTool(s *Server) {
	s.RegisterTool("echo", ToolDef{
		Description: "echo",
		Properties: map[string]PropDef{
			"text":  {Type: "string"},
			"extra": {Type: "string"},
		},
		Required: []string{"text"},
	}, func(args map[string]any) (Call, error) {
		text, ok := args["text"].(string)
		if !ok {
			return nil, errors.New("text must be a string")
		}
		return func(ctx context.Context) (any, error) {
			return map[string]string{"text": text}, nil
		}, nil
	})
}

func TestDispatch_Success(t *testing.T) {
	s := NewServer("test", "0.0.1")
	echoTool(s)

	reply := s.Dispatch(context.Background(), "echo", map[string]any{"text": "hi"})
	if !reply.OK() {
		t.Fatalf("unexpected error: %+v", reply.Error)
	}
	if got := reply.Result.(map[string]string)["text"]; got != "hi" {
		t.Errorf("result: got %q", got)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	s := NewServer("test", "0.0.1")
	reply := s.Dispatch(context.Background(), "nope", nil)
	if reply.OK() {
		t.Fatal("expected error")
	}
	if reply.Error.Kind != apperr.KindUnknownOperation || reply.Error.Code != 404 {
		t.Errorf("error: %+v", reply.Error)
	}
	if !strings.Contains(reply.Error.Message, "nope") {
		t.Errorf("message should name the tool: %q", reply.Error.Message)
	}
}

func TestDispatch_MissingRequired(t *testing.T) {
	s := NewServer("test", "0.0.1")
	s.RegisterTool("pair", ToolDef{Required: []string{"b", "a"}}, func(args map[string]any) (Call, error) {
		t.Fatal("handler should not run with missing arguments")
		return nil, nil
	})
	echoTool(s)

	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"echo", nil, "Missing required argument: text"},
		{"echo", map[string]any{"text": nil}, "Missing required argument: text"},
		{"echo", map[string]any{"text": "  "}, "Missing required argument: text"},
		{"pair", map[string]any{}, "Missing required arguments: a, b"},
	}
	for _, tt := range tests {
		reply := s.Dispatch(context.Background(), tt.tool, tt.args)
		if reply.OK() {
			t.Errorf("%s %v: expected error", tt.tool, tt.args)
			continue
		}
		if reply.Error.Code != 400 || reply.Error.Message != tt.want {
			t.Errorf("%s %v: got %+v", tt.tool, tt.args, reply.Error)
		}
	}
}

func TestDispatch_BindErrorsAreInvalidArgument(t *testing.T) {
	s := NewServer("test", "0.0.1")
	echoTool(s)
	s.RegisterTool("zone", ToolDef{}, func(args map[string]any) (Call, error) {
		return nil, apperr.New(apperr.KindInvalidTimezone, "Invalid timezone 'X'")
	})
	s.RegisterTool("boom", ToolDef{}, func(args map[string]any) (Call, error) {
		panic("bad input")
	})

	reply := s.Dispatch(context.Background(), "echo", map[string]any{"text": 42})
	if reply.OK() || reply.Error.Kind != apperr.KindInvalidArgument {
		t.Errorf("plain bind error: %+v", reply.Error)
	}

	reply = s.Dispatch(context.Background(), "zone", nil)
	if reply.OK() || reply.Error.Kind != apperr.KindInvalidTimezone || reply.Error.Code != 400 {
		t.Errorf("timezone bind error should keep its kind: %+v", reply.Error)
	}

	reply = s.Dispatch(context.Background(), "boom", nil)
	if reply.OK() || reply.Error.Kind != apperr.KindInvalidArgument {
		t.Errorf("bind panic: %+v", reply.Error)
	}
}

func TestDispatch_ExecutionErrors(t *testing.T) {
	s := NewServer("test", "0.0.1")
	register := func(name string, err error) {
		s.RegisterTool(name, ToolDef{}, func(args map[string]any) (Call, error) {
			return func(ctx context.Context) (any, error) { return nil, err }, nil
		})
	}
	register("missing", apperr.New(apperr.KindNotFound, "Activity log with ID x not found"))
	register("done", apperr.New(apperr.KindInvalidState, "already completed"))
	register("disk", apperr.New(apperr.KindStorage, "failed to save"))
	register("plain", errors.New("something broke"))
	s.RegisterTool("panics", ToolDef{}, func(args map[string]any) (Call, error) {
		return func(ctx context.Context) (any, error) { panic("kaboom") }, nil
	})

	tests := []struct {
		tool string
		kind apperr.Kind
		code int
	}{
		{"missing", apperr.KindNotFound, 404},
		{"done", apperr.KindInvalidState, 409},
		{"disk", apperr.KindStorage, 500},
		{"plain", apperr.KindOperationFailed, 500},
		{"panics", apperr.KindOperationFailed, 500},
	}
	for _, tt := range tests {
		reply := s.Dispatch(context.Background(), tt.tool, nil)
		if reply.OK() {
			t.Errorf("%s: expected error", tt.tool)
			continue
		}
		if reply.Error.Kind != tt.kind || reply.Error.Code != tt.code {
			t.Errorf("%s: got %+v", tt.tool, reply.Error)
		}
	}

	reply := s.Dispatch(context.Background(), "plain", nil)
	if !strings.Contains(reply.Error.Message, "something broke") {
		t.Errorf("original message should be kept: %q", reply.Error.Message)
	}
}

func TestDispatch_Timeout(t *testing.T) {
	s := NewServer("test", "0.0.1", WithTimeout(50*time.Millisecond))

	var finished atomic.Bool
	release := make(chan struct{})
	s.RegisterTool("slow", ToolDef{}, func(args map[string]any) (Call, error) {
		return func(ctx context.Context) (any, error) {
			<-release
			finished.Store(true)
			return "late", nil
		}, nil
	})

	start := time.Now()
	reply := s.Dispatch(context.Background(), "slow", nil)
	if reply.OK() || reply.Error.Kind != apperr.KindTimedOut || reply.Error.Code != 408 {
		t.Fatalf("expected timeout, got %+v", reply)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("dispatch waited far past the timeout")
	}
	if !strings.Contains(reply.Error.Message, "slow timed out") {
		t.Errorf("message: %q", reply.Error.Message)
	}

	// The abandoned call is not cancelled and still runs to completion
	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for !finished.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !finished.Load() {
		t.Error("abandoned call never finished")
	}
}

func TestDispatch_CallContextNotCancelledOnTimeout(t *testing.T) {
	s := NewServer("test", "0.0.1", WithTimeout(20*time.Millisecond))
	ctxErr := make(chan error, 1)
	s.RegisterTool("watch", ToolDef{}, func(args map[string]any) (Call, error) {
		return func(ctx context.Context) (any, error) {
			time.Sleep(60 * time.Millisecond)
			ctxErr <- ctx.Err()
			return nil, nil
		}, nil
	})

	s.Dispatch(context.Background(), "watch", nil)
	select {
	case err := <-ctxErr:
		if err != nil {
			t.Errorf("call context was cancelled: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("call never reported")
	}
}

func TestDispatch_Journal(t *testing.T) {
	j := journal.New(t.TempDir())
	s := NewServer("test", "0.0.1", WithJournal(j))
	echoTool(s)

	s.Dispatch(context.Background(), "echo", map[string]any{"text": "a"})
	s.Dispatch(context.Background(), "echo", map[string]any{})
	s.Dispatch(context.Background(), "ghost", nil)

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 journal entries, got %d", len(entries))
	}
	if entries[0].Outcome != journal.OutcomeSucceeded || entries[0].Phase != "" {
		t.Errorf("success entry: %+v", entries[0])
	}
	if entries[1].Outcome != journal.OutcomeFailed || entries[1].Phase != journal.PhaseValidating || entries[1].Code != 400 {
		t.Errorf("validation entry: %+v", entries[1])
	}
	if entries[2].Tool != "ghost" || entries[2].Code != 404 {
		t.Errorf("unknown tool entry: %+v", entries[2])
	}
}

func TestTools_RegistrationOrder(t *testing.T) {
	s := NewServer("test", "0.0.1")
	for _, name := range []string{"c", "a", "b"} {
		s.RegisterTool(name, ToolDef{}, nil)
	}
	s.RegisterTool("a", ToolDef{Description: "again"}, nil)

	tools := s.Tools()
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	if tools[0].Name != "c" || tools[1].Name != "a" || tools[2].Name != "b" {
		t.Errorf("order: %v", tools)
	}
	if tools[1].Def.Description != "again" {
		t.Error("re-registration should replace the definition")
	}
}

func TestFormatTimeout(t *testing.T) {
	if got := formatTimeout(60 * time.Second); got != "60 seconds" {
		t.Errorf("got %q", got)
	}
	if got := formatTimeout(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("got %q", got)
	}
}
