package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"duetrack/internal/usecase/tracker"
)

func testReport() tracker.DueReport {
	overdue := "2024-02-20"
	upcoming := "2024-03-10"
	return tracker.DueReport{
		Today:          "2024-03-01",
		WindowEnd:      "2024-03-29",
		LookaheadWeeks: 4,
		Overdue:        []tracker.EquipmentView{{ID: "eq-1", Name: "Boiler", DueDate: &overdue, IntervalWeeks: 4, State: "scheduled", Active: true}},
		Upcoming:       []tracker.EquipmentView{{ID: "eq-2", Name: "Chiller", DueDate: &upcoming, IntervalWeeks: 26, State: "scheduled", Active: true}},
		Remaining:      []tracker.EquipmentView{{ID: "eq-3", Name: "Sprinkler", IntervalWeeks: 52, State: "unscheduled", Active: true}},
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	cases := map[string]string{"": outputText, "TEXT": outputText, "json": outputJSON, " yaml ": outputYAML}
	for raw, want := range cases {
		got, err := parseOutputFormat(raw)
		if err != nil {
			t.Fatalf("parseOutputFormat(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("parseOutputFormat(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := parseOutputFormat("xml"); err == nil {
		t.Fatal("parseOutputFormat(xml) error = nil, want error")
	}
}

func TestWriteStructuredJSONKeepsNullDueDate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handled, err := writeStructured(&buf, outputJSON, testReport())
	if err != nil || !handled {
		t.Fatalf("writeStructured(json) = %v, %v; want true, nil", handled, err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	remaining := decoded["remaining"].([]any)
	record := remaining[0].(map[string]any)
	if due, ok := record["due_date"]; !ok || due != nil {
		t.Fatalf("remaining[0].due_date = %v (present=%v), want null", due, ok)
	}
}

func TestWriteStructuredYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handled, err := writeStructured(&buf, outputYAML, testReport())
	if err != nil || !handled {
		t.Fatalf("writeStructured(yaml) = %v, %v; want true, nil", handled, err)
	}

	var decoded struct {
		Today   string `yaml:"today"`
		Overdue []struct {
			ID      string `yaml:"id"`
			DueDate string `yaml:"due_date"`
		} `yaml:"overdue"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if decoded.Today != "2024-03-01" {
		t.Fatalf("today = %q, want 2024-03-01", decoded.Today)
	}
	if len(decoded.Overdue) != 1 || decoded.Overdue[0].DueDate != "2024-02-20" {
		t.Fatalf("overdue = %+v, want eq-1 due 2024-02-20", decoded.Overdue)
	}
}

func TestWriteStructuredTextIsNotHandled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handled, err := writeStructured(&buf, outputText, testReport())
	if err != nil || handled {
		t.Fatalf("writeStructured(text) = %v, %v; want false, nil", handled, err)
	}
	if buf.Len() != 0 {
		t.Fatalf("output = %q, want empty", buf.String())
	}
}

func TestWriteDueReportText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeDueReport(&buf, testReport()); err != nil {
		t.Fatalf("writeDueReport() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"today=2024-03-01", "Overdue", "Boiler", "2024-02-20", "Chiller", "Sprinkler"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	sprinklerLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Sprinkler") {
			sprinklerLine = line
		}
	}
	if !strings.Contains(sprinklerLine, " - ") {
		t.Fatalf("unscheduled row = %q, want '-' due column", sprinklerLine)
	}
	if strings.Index(out, "Boiler") > strings.Index(out, "Chiller") {
		t.Fatalf("overdue section should precede upcoming:\n%s", out)
	}
}
