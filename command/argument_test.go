package command

import (
	"strconv"
	"testing"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/go-cmp/cmp"
)

func TestRangeOverlaps(t *testing.T) {
	cases := []struct {
		a, b Range
		want bool
	}{
		{Single(1), Single(1), true},
		{Single(1), Single(2), false},
		{Between(1, 3), Single(3), true},
		{Between(1, 3), Single(4), false},
		{AtLeast(2), Single(1), false},
		{AtLeast(2), Single(7), true},
		{AtLeast(2), AtLeast(5), true},
		{Between(4, 5), AtLeast(2), true},
	}
	for _, c := range cases {
		if got := c.a.Overlaps(c.b); got != c.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
		if got := c.b.Overlaps(c.a); got != c.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", c.b, c.a, got, c.want)
		}
	}
}

func TestDefaultParse(t *testing.T) {
	if v, err := DefaultParse[string]("hello"); err != nil || v != "hello" {
		t.Errorf("string: got %q, %v", v, err)
	}
	if v, err := DefaultParse[int]("150"); err != nil || v != 150 {
		t.Errorf("int: got %d, %v", v, err)
	}
	if _, err := DefaultParse[int]("loud"); err == nil {
		t.Error("int: no error for non-numeric input")
	}
	if v, err := DefaultParse[bool]("true"); err != nil || !v {
		t.Errorf("bool: got %v, %v", v, err)
	}
	if _, err := DefaultParse[float64]("1.5"); err == nil {
		t.Error("float64: no error for unsupported type")
	}
}

func TestParseMention(t *testing.T) {
	cases := []struct {
		raw  string
		want discord.Snowflake
		ok   bool
	}{
		{"123456789", 123456789, true},
		{"<@123456789>", 123456789, true},
		{"<@!123456789>", 123456789, true},
		{"<@&123456789>", 123456789, true},
		{"<#123456789>", 123456789, true},
		{"someone", 0, false},
		{"<@someone>", 0, false},
	}
	for _, c := range cases {
		got, err := ParseMention(c.raw)
		if (err == nil) != c.ok {
			t.Errorf("ParseMention(%q) error = %v, want ok = %v", c.raw, err, c.ok)
			continue
		}
		if c.ok && got != c.want {
			t.Errorf("ParseMention(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func volumeArg() *Arg[int] {
	return &Arg[int]{
		Name:  "volume",
		Index: Single(1),
		Valid: func(v int) bool { return v >= 0 && v <= 400 },
		Message: func(raw string) string {
			v, err := strconv.Atoi(raw)
			if err == nil && v > 400 {
				return "The maximum volume is 400!"
			}
			return DefaultInvalidValueMessage
		},
	}
}

func TestArgValue(t *testing.T) {
	arg := volumeArg()

	v, err := arg.value("150")
	if err != nil {
		t.Fatalf("value(150): %v", err)
	}
	if v != 150 {
		t.Errorf("value(150) = %v", v)
	}

	_, err = arg.value("500")
	var invalid *InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("value(500) error = %v, want InvalidArgumentError", err)
	}
	if invalid.Message != "The maximum volume is 400!" {
		t.Errorf("wrong message %q", invalid.Message)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("value(500) should wrap ErrValidation, got %v", err)
	}

	_, err = arg.value("loud")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("value(loud) error = %v, want ParseError", err)
	}
	if !errors.As(err, &invalid) || invalid.Message != DefaultInvalidValueMessage {
		t.Errorf("value(loud) message = %q", invalid.Message)
	}
}

func TestParseArguments(t *testing.T) {
	query := &Arg[string]{Name: "query", Index: AtLeast(2)}
	count := &Arg[int]{Name: "count", Index: Single(1)}
	cmd := &Command{Name: "play", Arguments: []Argument{count, query}}

	got, err := cmd.parseArguments([]string{"play", "3", "never", "gonna", "give"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"count": 3, "query": "never gonna give"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong values (-want +got):\n%s", diff)
	}

	_, err = cmd.parseArguments([]string{"play", "3"})
	var insufficient *InsufficientArgumentsError
	if !errors.As(err, &insufficient) {
		t.Errorf("missing required argument: got %v", err)
	}

	query.Optional = true
	got, err = cmd.parseArguments([]string{"play", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]any{"count": 3}, got); diff != "" {
		t.Errorf("wrong values (-want +got):\n%s", diff)
	}
}

func TestParseArgumentsBoundedRange(t *testing.T) {
	pair := &Arg[string]{Name: "pair", Index: Between(1, 2)}
	cmd := &Command{Name: "x", Arguments: []Argument{pair}}

	got, err := cmd.parseArguments([]string{"x", "a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if got["pair"] != "a b" {
		t.Errorf("pair = %q, want %q", got["pair"], "a b")
	}
}
