package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/goknowledge/internal/app"
	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/retrieval"
)

const para = "Photosynthese ist ein Prozess, bei dem Pflanzen aus Licht, Wasser und Kohlendioxid Zucker und Sauerstoff bilden. Sie findet in den Chloroplasten statt."

func fixture(t *testing.T, path string) (dir string, args []string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>" + para + "</p></body></html>"))
	}))
	t.Cleanup(srv.Close)

	dir = t.TempDir()
	hits, _ := json.Marshal([]map[string]string{{"title": "Photosynthese", "url": srv.URL + path}})
	hitsPath := filepath.Join(dir, "hits.json")
	if err := os.WriteFile(hitsPath, hits, 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "goknowledge.yaml")
	yaml := "whitelist:\n  - base: " + srv.URL + "\n    pattern: /missing/{underscore}\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	args = []string{
		"-env", "",
		"-config", cfgPath,
		"-search", "file",
		"-search.file", hitsPath,
		"-no-pacing",
		"-db", filepath.Join(dir, "k.db"),
		"-cache.dir", filepath.Join(dir, "cache"),
	}
	return dir, args
}

func TestRealMain_WritesReportAndHistory(t *testing.T) {
	dir, args := fixture(t, "/ok")
	out := filepath.Join(dir, "report.md")
	code := realMain(context.Background(), append(args, "-out", out, "-category", "knowledge", "Was", "ist", "Photosynthese"), strings.NewReader(""), &bytes.Buffer{})
	if code != exitOK {
		t.Fatalf("exit code %d", code)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Photosynthese ist ein Prozess") || !strings.Contains(string(b), "category: knowledge") {
		t.Fatalf("unexpected report:\n%s", b)
	}

	var hist bytes.Buffer
	if code := realMain(context.Background(), append(args, "-history", "3"), strings.NewReader(""), &hist); code != exitOK {
		t.Fatalf("history exit code %d", code)
	}
	if !strings.Contains(hist.String(), "[knowledge]  Was ist Photosynthese") {
		t.Fatalf("unexpected history:\n%s", hist.String())
	}
}

func TestRealMain_ExhaustionExitsTwo(t *testing.T) {
	dir, args := fixture(t, "/missing")
	out := filepath.Join(dir, "report.md")
	code := realMain(context.Background(), append(args, "-tiers", "2", "-out", out, "-q", "Photosynthese"), strings.NewReader(""), &bytes.Buffer{})
	if code != exitExhausted {
		t.Fatalf("expected exit %d, got %d", exitExhausted, code)
	}
	b, _ := os.ReadFile(out)
	if !strings.Contains(string(b), "No online document could be extracted") {
		t.Fatalf("failure message not written:\n%s", b)
	}
}

func TestRealMain_UsageErrors(t *testing.T) {
	var out bytes.Buffer
	if code := realMain(context.Background(), []string{"-env", ""}, strings.NewReader(""), &out); code != exitError {
		t.Fatalf("missing query should fail, got %d", code)
	}
	if code := realMain(context.Background(), []string{"-env", "", "-q", "x", "-search", "bing"}, strings.NewReader(""), &out); code != exitError {
		t.Fatalf("invalid provider should fail, got %d", code)
	}
	if code := realMain(context.Background(), []string{"-version"}, strings.NewReader(""), &out); code != exitOK || !strings.Contains(out.String(), app.BuildVersion) {
		t.Fatalf("version: code %d, out %q", code, out.String())
	}
}

type echoAnswerer struct{ queries []string }

func (e *echoAnswerer) Answer(_ context.Context, q retrieval.Query) (app.Report, error) {
	e.queries = append(e.queries, q.Text)
	return app.Report{Query: q, Markdown: "answer: " + q.Text + " (" + q.Category.String() + ")"}, nil
}

func TestInteractive_AnswersEachLine(t *testing.T) {
	ans := &echoAnswerer{}
	var out bytes.Buffer
	interactive(context.Background(), ans, planner.Research, strings.NewReader("\n  Quantenverschränkung  \n"), &out)
	if len(ans.queries) != 1 || ans.queries[0] != "Quantenverschränkung" {
		t.Fatalf("unexpected queries %v", ans.queries)
	}
	if !strings.Contains(out.String(), "answer: Quantenverschränkung (research)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
