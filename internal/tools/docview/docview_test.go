package docview

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
	"github.com/louisbranch/typedview/internal/platform/timeouts"
)

const apiManifest = `{
  "name": "api",
  "version": "1.2.0",
  "created": "2024-03-09",
  "replicas": 3,
  "enabled": true,
  "limits": {"cpu": 0.5, "memory": 512}
}`

func TestParseConfigDefaults(t *testing.T) {
	for _, key := range []string{"TYPEDVIEW_DOCVIEW_DB_PATH", "TYPEDVIEW_DOCVIEW_LOCALE", "TYPEDVIEW_DOCVIEW_TIMEOUT", "TYPEDVIEW_DOCVIEW_GRPC_STATUS"} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}

	cfg, err := ParseConfig(flag.NewFlagSet("docview", flag.ContinueOnError), []string{"-list"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != filepath.Join("data", "documents.db") {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.Locale != "en-US" {
		t.Fatalf("expected default locale, got %q", cfg.Locale)
	}
	if cfg.Timeout != timeouts.Command {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}
	if !cfg.List {
		t.Fatal("expected -list to be set")
	}
	if cfg.Status {
		t.Fatal("expected status output off by default")
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("TYPEDVIEW_DOCVIEW_DB_PATH", "env.db")
	t.Setenv("TYPEDVIEW_DOCVIEW_LOCALE", "pt-BR")
	t.Setenv("TYPEDVIEW_DOCVIEW_TIMEOUT", "2s")
	t.Setenv("TYPEDVIEW_DOCVIEW_GRPC_STATUS", "true")

	cfg, err := ParseConfig(flag.NewFlagSet("docview", flag.ContinueOnError), []string{"-db-path", "flag.db", "-show", "api"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "flag.db" || cfg.Locale != "pt-BR" || cfg.Timeout != 2*time.Second || cfg.Show != "api" || !cfg.Status {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParseConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("TYPEDVIEW_DOCVIEW_TIMEOUT", "later")
	if _, err := ParseConfig(flag.NewFlagSet("docview", flag.ContinueOnError), nil); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestRunRequiresExactlyOneMode(t *testing.T) {
	if err := Run(context.Background(), Config{}, nil, nil); err == nil {
		t.Fatal("expected error without a mode")
	}
	err := Run(context.Background(), Config{List: true, Show: "api"}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "-list -show") {
		t.Fatalf("expected both modes named, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), Config{Describe: true, Locale: "en-US"}, &out, nil); err != nil {
		t.Fatalf("describe: %v", err)
	}
	for _, want := range []string{
		"View Manifest\n",
		"  created  time.Time  read-only\n",
		"  limits  *docview.Limits  read-only\n",
		"  limits.cpu  float64  read-only\n",
		"  limits.memory  int64  read-only\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestPutShowAndRaw(t *testing.T) {
	cfg := tempConfig(t)
	file := writeDocument(t, apiManifest)

	var out bytes.Buffer
	putCfg := cfg
	putCfg.Put, putCfg.File = "api", file
	if err := Run(context.Background(), putCfg, &out, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if out.String() != "Stored document api\n" {
		t.Fatalf("unexpected put output %q", out.String())
	}

	out.Reset()
	show := cfg
	show.Show = "api"
	if err := Run(context.Background(), show, &out, nil); err != nil {
		t.Fatalf("show: %v", err)
	}
	want := strings.Join([]string{
		"Document api",
		"  name: api",
		"  version: 1.2.0",
		"  created: 2024-03-09T00:00:00Z",
		"  replicas: 3",
		"  enabled: true",
		"  limits.cpu: 0.5",
		"  limits.memory: 512",
		"",
	}, "\n")
	if out.String() != want {
		t.Fatalf("unexpected show output:\n%s\nwant:\n%s", out.String(), want)
	}

	out.Reset()
	raw := cfg
	raw.Raw = "api"
	if err := Run(context.Background(), raw, &out, nil); err != nil {
		t.Fatalf("raw: %v", err)
	}
	if !strings.Contains(out.String(), "\"limits\": {") {
		t.Fatalf("expected pretty JSON, got %s", out.String())
	}
}

func TestListReportsBrokenDocuments(t *testing.T) {
	cfg := tempConfig(t)
	put(t, cfg, "api", apiManifest)
	put(t, cfg, "worker", `{"name":"worker","replicas":"many"}`)

	var out bytes.Buffer
	list := cfg
	list.List = true
	if err := Run(context.Background(), list, &out, nil); err != nil {
		t.Fatalf("list: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Document api\n",
		"Document worker\n",
		"  version: (missing)\n",
		"  replicas: Property replicas holds string, which cannot be read as int32\n",
		"  limits: (missing)\n",
		"2 documents, 1 with errors\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestPatchAndDelete(t *testing.T) {
	cfg := tempConfig(t)
	put(t, cfg, "api", apiManifest)

	patch := cfg
	patch.Patch, patch.Path, patch.Value = "api", "replicas", "5"
	var out bytes.Buffer
	if err := Run(context.Background(), patch, &out, nil); err != nil {
		t.Fatalf("patch: %v", err)
	}
	patch.Path, patch.Value = "version", "two"
	if err := Run(context.Background(), patch, &out, nil); err != nil {
		t.Fatalf("patch text: %v", err)
	}
	if !strings.Contains(out.String(), "Patched document api at replicas\n") {
		t.Fatalf("unexpected patch output %q", out.String())
	}

	out.Reset()
	show := cfg
	show.Show = "api"
	if err := Run(context.Background(), show, &out, nil); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), "  replicas: 5\n") || !strings.Contains(out.String(), "  version: two\n") {
		t.Fatalf("expected patched values, got:\n%s", out.String())
	}

	del := cfg
	del.Delete = "api"
	if err := Run(context.Background(), del, &out, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err := Run(context.Background(), show, &out, nil)
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestErrorsAreLocalized(t *testing.T) {
	cfg := tempConfig(t)
	cfg.Locale = "pt-BR"
	cfg.Show = "missing"

	err := Run(context.Background(), cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "O documento missing não foi encontrado" {
		t.Fatalf("unexpected localized message %q", err.Error())
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected domain error in chain, got %v", err)
	}
}

func TestStatusReportsGRPCCode(t *testing.T) {
	cfg := tempConfig(t)
	cfg.Show = "missing"
	cfg.Status = true

	var errOut bytes.Buffer
	if err := Run(context.Background(), cfg, nil, &errOut); err == nil {
		t.Fatal("expected error")
	}
	if errOut.String() != "gRPC status NotFound (NOT_FOUND)\n" {
		t.Fatalf("unexpected status output %q", errOut.String())
	}

	errOut.Reset()
	bad := cfg
	bad.Show, bad.Put, bad.File = "", "worker", writeDocument(t, `[1]`)
	if err := Run(context.Background(), bad, nil, &errOut); apperrors.CodeOf(err) != apperrors.CodeInvalidDocument {
		t.Fatalf("expected invalid document, got %v", err)
	}
	if errOut.String() != "gRPC status InvalidArgument (INVALID_DOCUMENT)\n" {
		t.Fatalf("unexpected status output %q", errOut.String())
	}
}

func TestStatusOffWritesNothing(t *testing.T) {
	cfg := tempConfig(t)
	cfg.Show = "missing"

	var errOut bytes.Buffer
	if err := Run(context.Background(), cfg, nil, &errOut); err == nil {
		t.Fatal("expected error")
	}
	if errOut.Len() != 0 {
		t.Fatalf("expected no status output, got %q", errOut.String())
	}
}

func TestPutRequiresFile(t *testing.T) {
	cfg := tempConfig(t)
	cfg.Put = "api"
	if err := Run(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error without -file")
	}
}

func tempConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBPath:  filepath.Join(t.TempDir(), "documents.db"),
		Locale:  "en-US",
		Timeout: time.Minute,
	}
}

func writeDocument(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func put(t *testing.T, cfg Config, id, body string) {
	t.Helper()
	cfg.Put, cfg.File = id, writeDocument(t, body)
	if err := Run(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("put %s: %v", id, err)
	}
}
