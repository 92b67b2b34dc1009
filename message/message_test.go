package message

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseRequestPositional(t *testing.T) {
	req, err := ParseRequest([]any{"mult", []any{3, 4}})
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Method != "mult" {
		t.Errorf("method: got %q, want mult", req.Method)
	}
	if req.Args.Kind != ArgsPositional {
		t.Errorf("expected positional args")
	}
	if !reflect.DeepEqual(req.Args.Positional, []any{3, 4}) {
		t.Errorf("args: got %v", req.Args.Positional)
	}
}

func TestParseRequestKeyword(t *testing.T) {
	req, err := ParseRequest([]any{"div", map[string]any{"a": 10, "b": 2}})
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Args.Kind != ArgsKeyword {
		t.Errorf("expected keyword args")
	}
	if req.Args.Keyword["a"] != 10 || req.Args.Keyword["b"] != 2 {
		t.Errorf("kwargs: got %v", req.Args.Keyword)
	}
}

func TestParseRequestWrongCount(t *testing.T) {
	for _, decoded := range []any{
		[]any{"mult"},
		[]any{"mult", []any{1}, "extra"},
		[]any{},
		"not even a pair",
		42,
	} {
		_, err := ParseRequest(decoded)
		if err == nil {
			t.Fatalf("expected error for %v", decoded)
		}
		if err.Error() != "Wrong number of RPC objects, should be 2: name and arguments" {
			t.Errorf("wrong diagnostic for %v: %q", decoded, err)
		}
	}
}

func TestParseRequestWrongArgsType(t *testing.T) {
	for _, badArgs := range []any{"not-a-list-or-dict", 7, true, nil} {
		_, err := ParseRequest([]any{"mult", badArgs})
		if err == nil {
			t.Fatalf("expected error for args %v", badArgs)
		}
		if err.Error() != "Wrong type of arguments in RPC, should be list, tuple or dictionary" {
			t.Errorf("wrong diagnostic for args %v: %q", badArgs, err)
		}
	}
}

func TestParseRequestNonStringMethod(t *testing.T) {
	_, err := ParseRequest([]any{42, []any{}})
	if err == nil {
		t.Fatal("expected error for non-string method name")
	}
	if !strings.Contains(err.Error(), "method name must be a string") {
		t.Errorf("unexpected diagnostic: %q", err)
	}
}

func TestRequestEnvelope(t *testing.T) {
	req := &Request{Method: "mult", Args: PositionalArgs(3, 4)}
	want := []any{"mult", []any{3, 4}}
	if !reflect.DeepEqual(req.Envelope(), want) {
		t.Errorf("envelope: got %v, want %v", req.Envelope(), want)
	}

	// Empty positional args must encode as an empty sequence, not nil.
	req = &Request{Method: "nope"}
	env := req.Envelope()
	if args, ok := env[1].([]any); !ok || args == nil {
		t.Errorf("empty args: got %v (%T)", env[1], env[1])
	}

	req = &Request{Method: "div", Args: KeywordArgs(map[string]any{"a": 1, "b": 2})}
	env = req.Envelope()
	if _, ok := env[1].(map[string]any); !ok {
		t.Errorf("keyword envelope: got %T", env[1])
	}
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]any{"OK", 12})
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Status != StatusOK || resp.Payload != 12 {
		t.Errorf("got %+v", resp)
	}

	resp, err = ParseResponse([]any{"error", "division by zero"})
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Status != StatusError || resp.Payload != "division by zero" {
		t.Errorf("got %+v", resp)
	}

	for _, decoded := range []any{[]any{"OK"}, []any{"maybe", 1}, "no", []any{12, "x"}} {
		if _, err := ParseResponse(decoded); err == nil {
			t.Errorf("expected error for %v", decoded)
		}
	}
}

func TestResponseConstructors(t *testing.T) {
	if r := OK(7); r.Status != StatusOK || r.Payload != 7 {
		t.Errorf("OK: got %+v", r)
	}
	if r := Errorf("bad %s", "thing"); r.Status != StatusError || r.Payload != "bad thing" {
		t.Errorf("Errorf: got %+v", r)
	}
	want := []any{"error", "boom"}
	if !reflect.DeepEqual(Error("boom").Envelope(), want) {
		t.Errorf("envelope: got %v", Error("boom").Envelope())
	}
}
