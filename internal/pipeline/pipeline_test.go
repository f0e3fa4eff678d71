package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/showcase/internal/model"
)

var quiet = slog.New(slog.DiscardHandler)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.LoadReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.LoadReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("new pipeline has no steps", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if len(p.StepNames()) != 0 {
			t.Errorf("expected no names, got %v", p.StepNames())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

		if diff := cmp.Diff([]string{"first", "second", "third"}, p.StepNames()); diff != "" {
			t.Errorf("StepNames() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order and records them", func(t *testing.T) {
		t.Parallel()

		var order []string
		step := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.LoadReport) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New(WithLogger(quiet))
		p.AddSteps(step("a"), step("b"))

		report := model.NewLoadReport("g", "g.json")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "b"}, order); diff != "" {
			t.Errorf("execution order mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"a", "b"}, report.Steps); diff != "" {
			t.Errorf("report.Steps mismatch (-want +got):\n%s", diff)
		}
		if report.FinishedAt.IsZero() {
			t.Error("report not finished")
		}
	})

	t.Run("first failure stops the load as a LoadError", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("no such file")
		after := &mockStep{name: "after"}

		p := New(WithLogger(quiet))
		p.AddSteps(&mockStep{name: "fetch", doFunc: func(context.Context, *model.LoadReport) error {
			return cause
		}}, after)

		report := model.NewLoadReport("g", "g.json")
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, model.ErrLoad) || !errors.Is(err, cause) {
			t.Fatalf("Execute() error = %v", err)
		}
		var le *model.LoadError
		if !errors.As(err, &le) || le.Stage != "fetch" || le.Gallery != "g" {
			t.Errorf("LoadError = %+v", le)
		}
		if after.callCount != 0 {
			t.Error("step after the failure ran")
		}
		if !report.Failed() || report.Error != err.Error() {
			t.Errorf("report.Error = %q", report.Error)
		}
		if report.FinishedAt.IsZero() || report.RecordCount != 0 {
			t.Errorf("failed report = %+v", report)
		}
	})

	t.Run("a failure after the collection is built drops it", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(quiet))
		p.AddSteps(
			&mockStep{name: "build", doFunc: func(_ context.Context, r *model.LoadReport) error {
				r.Collection = model.NewCollection("g", []model.Record{{Title: "x"}}, r.StartedAt)
				return nil
			}},
			&mockStep{name: "boom", doFunc: func(context.Context, *model.LoadReport) error {
				return errors.New("boom")
			}},
		)
		report := model.NewLoadReport("g", "g.json")
		_ = p.Execute(context.Background(), report)
		if report.Collection != nil || report.RecordCount != 0 {
			t.Error("collection kept after failure")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New(WithLogger(quiet))
		p.AddStep(step)

		err := p.Execute(ctx, model.NewLoadReport("g", "g.json"))
		if !errors.Is(err, context.Canceled) || !errors.Is(err, model.ErrLoad) {
			t.Errorf("expected cancelled load error, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
	})

	t.Run("successful load fills the report", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(quiet))
		p.AddStep(&mockStep{name: "index", doFunc: func(_ context.Context, r *model.LoadReport) error {
			r.Collection = model.NewCollection("g", []model.Record{
				{Title: "a", Category: "A"}, {Title: "b", Category: "B"}, {Title: "c", Category: "A"},
			}, r.StartedAt)
			return nil
		}})

		report := model.NewLoadReport("g", "g.json")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatal(err)
		}
		if report.RecordCount != 3 || report.CategoryCounts["A"] != 2 || len(report.Fingerprints) != 3 {
			t.Errorf("report = %+v", report)
		}
	})
}
