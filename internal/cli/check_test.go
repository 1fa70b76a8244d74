package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const ledgerSpecYAML = `openapi: 3.0.3
info:
  title: Ledger API
  version: v2
  x-formance-namespace: Ledger
x-formance-group-roots: [Ledger]
paths:
  /v2/logs:
    get:
      x-formance-name: listLogs
      x-formance-paginated: true
      parameters:
        - name: cursor
          in: query
          schema: { type: string }
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/LogsCursorResponse'
components:
  schemas:
    LogsCursorResponse:
      type: object
      required: [cursor]
      properties:
        cursor:
          type: object
          required: [data]
          properties:
            next: { type: string }
            data:
              type: array
              items: { type: string }
`

const brokenSpecYAML = `openapi: 3.0.3
info:
  title: Broken
  version: v1
  x-formance-namespace: Ledger
paths:
  /logs:
    get:
      x-formance-interface: Logs
      x-formance-paginated: true
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: { type: string }
`

func runRoot(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck_Clean(t *testing.T) {
	path := writeFile(t, "openapi.yaml", ledgerSpecYAML)

	out, _, err := runRoot("check", "--input", path, "--no-color")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if strings.TrimSpace(out) != "0 errors, 0 warnings" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCheck_ReportsDiagnostics(t *testing.T) {
	path := writeFile(t, "openapi.yaml", brokenSpecYAML)

	out, _, err := runRoot("check", "--input", path, "--no-color")
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("expected ErrDiagnostics, got %v", err)
	}
	for _, want := range []string{
		"#/paths/~1logs/get: error missing-cursor-parameter:",
		"error paginated-response-no-cursor:",
		"warning no-interfaces:",
		"2 errors, 1 warning",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestCheck_JSONAndRuleSelection(t *testing.T) {
	path := writeFile(t, "openapi.yaml", brokenSpecYAML)

	out, _, err := runRoot("check", "--input", path, "--format", "json", "--disable", "no-interfaces")
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("expected ErrDiagnostics, got %v", err)
	}
	var doc struct {
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if doc.Errors != 2 || doc.Warnings != 0 {
		t.Fatalf("unexpected counts: %+v", doc)
	}
}

func TestCheck_UnknownRule(t *testing.T) {
	path := writeFile(t, "openapi.yaml", ledgerSpecYAML)

	_, _, err := runRoot("check", "--input", path, "--enable", "no-such-rule")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestCheck_SpecErrorIsUsageError(t *testing.T) {
	path := writeFile(t, "openapi.yaml", "openapi: 9.0.0\npaths: {}")

	_, _, err := runRoot("check", "--input", path)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Location:") {
		t.Fatalf("expected location in message: %v", err)
	}
}

func TestCheck_VerboseLogsToStderr(t *testing.T) {
	path := writeFile(t, "openapi.yaml", ledgerSpecYAML)

	out, errOut, err := runRoot("--verbose", "check", "--input", path, "--no-color")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(errOut, "annotated operation") {
		t.Fatalf("expected debug logs on stderr, got %q", errOut)
	}
	if strings.Contains(out, "annotated operation") {
		t.Fatalf("logs leaked to stdout: %q", out)
	}
}
