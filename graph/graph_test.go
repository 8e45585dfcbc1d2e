package graph

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tandemkit/tandem/observer"
	"github.com/tandemkit/tandem/schema"
)

func appendNode(name string) NodeFunc {
	return func(ctx context.Context, state *schema.State) error {
		state.Append(schema.NewAssistantMessage(name, name))
		state.Sender = name
		return nil
	}
}

func TestCompileValidation(t *testing.T) {
	t.Run("missing entry point", func(t *testing.T) {
		g := NewStateGraph().AddNode("a", appendNode("a")).AddEdge("a", End)
		if _, err := g.Compile(); !errors.Is(err, schema.ErrGraphNoEntryPoint) {
			t.Fatalf("expected ErrGraphNoEntryPoint, got %v", err)
		}
	})

	t.Run("unknown edge target", func(t *testing.T) {
		g := NewStateGraph().
			AddNode("a", appendNode("a")).
			AddEdge("a", "ghost").
			SetEntryPoint("a")
		if _, err := g.Compile(); !errors.Is(err, schema.ErrGraphNodeNotFound) {
			t.Fatalf("expected ErrGraphNodeNotFound, got %v", err)
		}
	})

	t.Run("unknown conditional path target", func(t *testing.T) {
		g := NewStateGraph().
			AddNode("a", appendNode("a")).
			AddConditionalEdges("a", func(*schema.State) string { return "x" },
				map[string]string{"x": "ghost"}).
			SetEntryPoint("a")
		if _, err := g.Compile(); !errors.Is(err, schema.ErrGraphNodeNotFound) {
			t.Fatalf("expected ErrGraphNodeNotFound, got %v", err)
		}
	})

	t.Run("nil router", func(t *testing.T) {
		g := NewStateGraph().
			AddNode("a", appendNode("a")).
			AddConditionalEdges("a", nil, map[string]string{"x": End}).
			SetEntryPoint("a")
		_, err := g.Compile()
		if err == nil || !strings.Contains(err.Error(), "nil router") {
			t.Fatalf("expected nil router error, got %v", err)
		}
	})

	t.Run("empty path map", func(t *testing.T) {
		g := NewStateGraph().
			AddNode("a", appendNode("a")).
			AddConditionalEdges("a", func(*schema.State) string { return "x" }, nil).
			SetEntryPoint("a")
		_, err := g.Compile()
		if err == nil || !strings.Contains(err.Error(), "empty path map") {
			t.Fatalf("expected empty path map error, got %v", err)
		}
	})

	t.Run("dead end node", func(t *testing.T) {
		g := NewStateGraph().AddNode("a", appendNode("a")).SetEntryPoint("a")
		if _, err := g.Compile(); !errors.Is(err, schema.ErrGraphNoRoute) {
			t.Fatalf("expected ErrGraphNoRoute, got %v", err)
		}
	})
}

func TestRunStaticChain(t *testing.T) {
	g, err := NewStateGraph().
		AddNode("first", appendNode("first")).
		AddNode("second", appendNode("second")).
		AddEdge("first", "second").
		AddEdge("second", End).
		SetEntryPoint("first").
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	state, err := g.Run(context.Background(), schema.NewState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(state.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(state.Messages))
	}
	if state.Messages[0].Sender != "first" || state.Messages[1].Sender != "second" {
		t.Fatalf("unexpected order: %v, %v", state.Messages[0].Sender, state.Messages[1].Sender)
	}
	if state.Sender != "second" {
		t.Fatalf("expected sender second, got %q", state.Sender)
	}
}

func TestRunConditionalRouting(t *testing.T) {
	// Ping-pong between two nodes until one of them has produced two
	// messages, then stop.
	router := func(state *schema.State) string {
		if len(state.Messages) >= 3 {
			return "done"
		}
		if state.Sender == "ping" {
			return "continue"
		}
		return "back"
	}

	g, err := NewStateGraph().
		AddNode("ping", appendNode("ping")).
		AddNode("pong", appendNode("pong")).
		AddConditionalEdges("ping", router, map[string]string{"continue": "pong", "done": End}).
		AddConditionalEdges("pong", router, map[string]string{"back": "ping", "done": End}).
		SetEntryPoint("ping").
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	state, err := g.Run(context.Background(), schema.NewState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"ping", "pong", "ping"}
	if len(state.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(state.Messages))
	}
	for i, sender := range want {
		if state.Messages[i].Sender != sender {
			t.Fatalf("message %d: expected sender %q, got %q", i, sender, state.Messages[i].Sender)
		}
	}
}

func TestRunUnknownRoute(t *testing.T) {
	g, err := NewStateGraph().
		AddNode("a", appendNode("a")).
		AddConditionalEdges("a", func(*schema.State) string { return "nowhere" },
			map[string]string{"somewhere": End}).
		SetEntryPoint("a").
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := g.Run(context.Background(), schema.NewState()); !errors.Is(err, schema.ErrGraphNoRoute) {
		t.Fatalf("expected ErrGraphNoRoute, got %v", err)
	}
}

func TestRunStepBudgetExhausted(t *testing.T) {
	g, err := NewStateGraph().
		AddNode("loop", appendNode("loop")).
		AddEdge("loop", "loop").
		SetEntryPoint("loop").
		Compile(WithMaxSteps(5))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	state, err := g.Run(context.Background(), schema.NewState())
	if !errors.Is(err, schema.ErrGraphStepsExhausted) {
		t.Fatalf("expected ErrGraphStepsExhausted, got %v", err)
	}
	if len(state.Messages) != 5 {
		t.Fatalf("expected 5 node executions, got %d", len(state.Messages))
	}
}

func TestRunNodeErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	g, err := NewStateGraph().
		AddNode("a", func(ctx context.Context, state *schema.State) error { return boom }).
		AddEdge("a", End).
		SetEntryPoint("a").
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := g.Run(context.Background(), schema.NewState()); !errors.Is(err, boom) {
		t.Fatalf("expected node error, got %v", err)
	}
}

type recordingObserver struct {
	observer.Noop
	events []schema.Event
}

func (r *recordingObserver) OnRunStart(ctx context.Context, event schema.Event) {
	r.events = append(r.events, event)
}

func (r *recordingObserver) OnRunEnd(ctx context.Context, event schema.Event) {
	r.events = append(r.events, event)
}

func TestRunEmitsRunEvents(t *testing.T) {
	obs := &recordingObserver{}
	g, err := NewStateGraph().
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		AddEdge("a", "b").
		AddEdge("b", End).
		SetEntryPoint("a").
		Compile(WithObserver(obs))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if _, err := g.RunWithID(context.Background(), "run-ok", schema.NewState()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(obs.events) != 2 {
		t.Fatalf("expected run start and end events, got %d", len(obs.events))
	}
	start, end := obs.events[0], obs.events[1]
	if start.Type != schema.EventRunStart || start.RunID != "run-ok" || start.Node != "a" {
		t.Fatalf("unexpected start event: %+v", start)
	}
	if end.Type != schema.EventRunEnd || end.Err != nil {
		t.Fatalf("unexpected end event: %+v", end)
	}
	if end.Step != 2 {
		t.Fatalf("end event should carry the executed step count, got %d", end.Step)
	}
}

func TestRunEndEventCarriesError(t *testing.T) {
	obs := &recordingObserver{}
	boom := errors.New("boom")
	g, err := NewStateGraph().
		AddNode("a", func(ctx context.Context, state *schema.State) error { return boom }).
		AddEdge("a", End).
		SetEntryPoint("a").
		Compile(WithObserver(obs))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if _, err := g.Run(context.Background(), schema.NewState()); !errors.Is(err, boom) {
		t.Fatalf("expected node error, got %v", err)
	}
	end := obs.events[len(obs.events)-1]
	if end.Type != schema.EventRunEnd {
		t.Fatalf("expected run end event last, got %+v", end)
	}
	if !errors.Is(end.Err, boom) {
		t.Fatalf("end event should carry the run error, got %v", end.Err)
	}
}

func TestResumeFromCheckpoint(t *testing.T) {
	cp := NewMemoryCheckpointer()
	boom := errors.New("transient")
	failOnce := true

	g, err := NewStateGraph().
		AddNode("first", appendNode("first")).
		AddNode("second", func(ctx context.Context, state *schema.State) error {
			if failOnce {
				failOnce = false
				return boom
			}
			return appendNode("second")(ctx, state)
		}).
		AddEdge("first", "second").
		AddEdge("second", End).
		SetEntryPoint("first").
		Compile(WithCheckpointer(cp))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	const runID = "run-1"
	if _, err := g.RunWithID(context.Background(), runID, schema.NewState()); !errors.Is(err, boom) {
		t.Fatalf("expected transient failure, got %v", err)
	}

	state, err := g.Resume(context.Background(), runID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(state.Messages) != 2 {
		t.Fatalf("expected 2 messages after resume, got %d", len(state.Messages))
	}
	if state.Messages[1].Sender != "second" {
		t.Fatalf("expected second node to run on resume, got %q", state.Messages[1].Sender)
	}
}

func TestResumeUnknownRun(t *testing.T) {
	g, err := NewStateGraph().
		AddNode("a", appendNode("a")).
		AddEdge("a", End).
		SetEntryPoint("a").
		Compile(WithCheckpointer(NewMemoryCheckpointer()))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := g.Resume(context.Background(), "missing"); !errors.Is(err, schema.ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}
}

func TestSQLiteCheckpointerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	cp, err := NewSQLiteCheckpointer(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cp.Close()

	ctx := context.Background()
	state := schema.NewState(schema.NewAssistantMessage("researcher", "partial result"))
	state.Sender = "researcher"
	saved := Checkpoint{RunID: "run-42", Step: 3, Node: "researcher", Next: "call_tool", State: state}
	if err := cp.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Second save for the same run overwrites the first.
	saved.Step = 4
	saved.Node = "call_tool"
	saved.Next = "researcher"
	if err := cp.Save(ctx, saved); err != nil {
		t.Fatalf("save again: %v", err)
	}

	loaded, err := cp.Load(ctx, "run-42")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Step != 4 || loaded.Node != "call_tool" || loaded.Next != "researcher" {
		t.Fatalf("unexpected checkpoint: %+v", loaded)
	}
	if len(loaded.State.Messages) != 1 || loaded.State.Sender != "researcher" {
		t.Fatalf("unexpected state: %+v", loaded.State)
	}

	if _, err := cp.Load(ctx, "other"); !errors.Is(err, schema.ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}
}
