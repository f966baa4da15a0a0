package commands

import (
	"errors"
	"testing"

	"memo/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent @home !high", TypeAdd},
		{"done 3", TypeDone},
		{"/delete 2", TypeDelete},
		{"filter category work", TypeFilter},
		{"/sort due asc", TypeSort},
		{"/clear", TypeClear},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddExtractsTokens(t *testing.T) {
	cmd, err := Parse("/add pay rent @home !urgent #bills #money due:2026-09-01")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	add := cmd.Add
	if add.Title != "pay rent" {
		t.Fatalf("unexpected title: %q", add.Title)
	}
	if add.Category != "home" {
		t.Fatalf("unexpected category: %q", add.Category)
	}
	if add.Priority != model.PriorityUrgent {
		t.Fatalf("unexpected priority: %v", add.Priority)
	}
	if len(add.Tags) != 2 || add.Tags[0] != "bills" || add.Tags[1] != "money" {
		t.Fatalf("unexpected tags: %v", add.Tags)
	}
	if add.Due != "2026-09-01" {
		t.Fatalf("unexpected due: %q", add.Due)
	}
}

func TestParseAddDefaultsPriority(t *testing.T) {
	cmd, err := Parse("add water plants")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Add.Priority != model.PriorityNormal {
		t.Fatalf("unexpected default priority: %v", cmd.Add.Priority)
	}
	if cmd.Add.Category != "" {
		t.Fatalf("unexpected category: %q", cmd.Add.Category)
	}
}

func TestParseAddRejectsTokenOnlyInput(t *testing.T) {
	_, err := Parse("/add @work !high")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestParseAddRejectsUnknownPriority(t *testing.T) {
	_, err := Parse("/add fix roof !mega")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestParseFilterVariants(t *testing.T) {
	cmd, err := Parse("/filter status done")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Filter.Status == nil || *cmd.Filter.Status != model.StatusCompleted {
		t.Fatalf("unexpected status filter: %+v", cmd.Filter)
	}

	cmd, err = Parse("/filter clear")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !cmd.Filter.Clear {
		t.Fatalf("expected clear filter: %+v", cmd.Filter)
	}

	_, err = Parse("/filter status someday")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestParseSortOrder(t *testing.T) {
	cmd, err := Parse("/sort priority desc")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Sort.Key != "priority" || !cmd.Sort.Descending {
		t.Fatalf("unexpected sort args: %+v", cmd.Sort)
	}

	_, err = Parse("/sort priority sideways")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs @work")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Title != "write docs" || a.Category != "work" {
				t.Fatalf("unexpected args: %+v", a)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("done 1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
