package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(WarnLevel), WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.Debug("dropped")
	l.Info("dropped too")
	l.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("below-level entries written: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn entry missing: %q", out)
	}
}

func TestJSONFormatterFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithFormatter(&JSONFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.Info("ingested report", Uint32("probe", 7), Int("entries", 3))

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("output not json: %v (%q)", err, buf.String())
	}
	if obj["msg"] != "ingested report" {
		t.Fatalf("msg = %v", obj["msg"])
	}
	if obj["level"] != "INFO" {
		t.Fatalf("level = %v", obj["level"])
	}
	if obj["probe"] != float64(7) || obj["entries"] != float64(3) {
		t.Fatalf("fields lost: %v", obj)
	}
}

func TestWithFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithFormatter(&JSONFormatter{}), WithOutput(NewWriterOutput(&buf)))
	derived := l.With(Component("udp"), Str("session", "run-1"))
	derived.Info("listener up")

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("output not json: %v", err)
	}
	if obj["component"] != "udp" || obj["session"] != "run-1" {
		t.Fatalf("derived fields missing: %v", obj)
	}
}

func TestTextFormatterSortedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.Info("m", F("b", 2), F("a", 1))
	line := buf.String()
	if !strings.Contains(line, "a=1 b=2") {
		t.Fatalf("fields not sorted: %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"":        InfoLevel,
		"debug":   DebugLevel,
		"WARN":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestApplyConfigUnknownFormatFallsBack(t *testing.T) {
	l, err := ApplyConfig(Config{Level: "debug", Format: "xml"})
	if err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if l == nil || l.GetLevel() != DebugLevel {
		t.Fatalf("fallback logger unusable: %v", l)
	}
}

func TestErrField(t *testing.T) {
	if f := Err(nil); f.Key != "error" || f.Value != nil {
		t.Fatalf("Err(nil) = %+v", f)
	}
}
