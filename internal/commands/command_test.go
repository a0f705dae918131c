package commands

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/dosed/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add Aspirin at 08:00", TypeAdd},
		{"add vitamin d twice", TypeAdd},
		{"take aspirin", TypeTake},
		{"skip 3f2a", TypeSkip},
		{"MISS metformin", TypeMiss},
		{"pause aspirin", TypePause},
		{"resume aspirin", TypeResume},
		{"delete aspirin", TypeDelete},
		{"show due", TypeShow},
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

func TestParseAddWithTimesAndDose(t *testing.T) {
	cmd, err := Parse("add Vitamin D at 8:00,20:30 21:00 dose 1000 IU")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Name != "Vitamin D" || a.Frequency != model.FrequencyCustom || a.Dosage != "1000 IU" {
		t.Fatalf("unexpected add args: %+v", a)
	}
	if len(a.Times) != 3 || a.Times[0] != "08:00" || a.Times[2] != "21:00" {
		t.Fatalf("unexpected times: %v", a.Times)
	}

	cmd, err = Parse("add Metformin XR thrice")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Add.Name != "Metformin XR" || cmd.Add.Frequency != model.FrequencyThreeTimesDaily || len(cmd.Add.Times) != 0 {
		t.Fatalf("unexpected preset add: %+v", cmd.Add)
	}
}

func TestParseAddRejectsBadInput(t *testing.T) {
	for _, in := range []string{"add", "add Aspirin", "add Aspirin at", "add Aspirin at 25:00", "add at 08:00", "add Aspirin once dose"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseIntakeAndToggleArgs(t *testing.T) {
	cmd, err := Parse("skip Vitamin D")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Intake.Ref != "Vitamin D" || cmd.Intake.Status != model.IntakeSkipped {
		t.Fatalf("unexpected intake args: %+v", cmd.Intake)
	}

	cmd, err = Parse("resume aspirin")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !cmd.Toggle.Active {
		t.Fatal("expected resume to activate")
	}

	if _, err := Parse("take"); err == nil {
		t.Fatal("expected take without reference to fail")
	}
	if _, err := Parse("show calendar"); err == nil {
		t.Fatal("expected unknown show subject to fail")
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/snooze aspirin")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}

	_, err = Parse("  / ")
	if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/take aspirin")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Intake: func(a IntakeArgs) (Result, error) {
			called = true
			if a.Ref != "aspirin" || a.Status != model.IntakeTaken {
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
	cmd, err := Parse("show history")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
