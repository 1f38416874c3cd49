package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/repository/fragment"
)

const corpus = "DIGESTA IUSTINIANI\nDig.1.1.0. Iustitia est constans et perpetua voluntas.\nDig.1.1.1. Ius est ars boni et aequi.\n"

// workspace chdirs into a fresh directory holding the corpus and a config file.
func workspace(t *testing.T, cfg string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ENV", "local")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "digesto.txt"), []byte(corpus), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "digesto.yaml"), []byte(cfg), 0o600))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	cmd := a.rootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", "digesto.yaml", "--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func TestSegmentCommand(t *testing.T) {
	dir := workspace(t, "input:\n  path: digesto.txt\n")

	out, err := execute(t, "segment", "--output", "fragments.json")
	require.NoError(t, err)
	assert.Contains(t, out, "2 fragments (utf-8) written to fragments.json")

	got, err := fragment.Read(filepath.Join(dir, "fragments.json"), fragment.FormatFragments)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Dig.1.1.0.", got[0].Citation)
	assert.Equal(t, "Ius est ars boni et aequi.", got[1].Text)
}

func TestSegmentCommand_ConfiguredOutputAndTexts(t *testing.T) {
	dir := workspace(t, "output:\n  path: out/texts.json\n  format: texts\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o750))

	_, err := execute(t, "segment")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out", "texts.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n    \"Iustitia"), "unexpected document:\n%s", data)
}

func TestSegmentCommand_LinesMode(t *testing.T) {
	dir := workspace(t, "")

	_, err := execute(t, "segment", "--mode", "lines", "--max-length", "8", "--output", "lines.json")
	require.NoError(t, err)

	got, err := fragment.Read(filepath.Join(dir, "lines.json"), fragment.FormatFragments)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Iustitia [...]", got[0].Text)
}

func TestSegmentCommand_MissingInput(t *testing.T) {
	dir := workspace(t, "")

	_, err := execute(t, "segment", "--input", "absent.txt", "--output", "out.json")
	require.ErrorIs(t, err, domain.ErrInputNotFound)

	_, statErr := os.Stat(filepath.Join(dir, "out.json"))
	assert.True(t, os.IsNotExist(statErr), "no output file expected")
}

func TestSegmentCommand_InvalidMode(t *testing.T) {
	workspace(t, "")

	_, err := execute(t, "segment", "--mode", "regex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment.mode")
}

func TestSegmentCommand_InvalidPattern(t *testing.T) {
	workspace(t, "")

	_, err := execute(t, "segment", "--pattern", "Dig[")
	assert.ErrorIs(t, err, domain.ErrInvalidPattern)
}

func TestSegmentCommand_WithMetricsServer(t *testing.T) {
	workspace(t, "")

	_, err := execute(t, "segment", "--metrics-addr", "127.0.0.1:0")
	assert.NoError(t, err)
}

func TestInspectCommand(t *testing.T) {
	workspace(t, "")

	out, err := execute(t, "inspect", "--bytes", "16")
	require.NoError(t, err)
	assert.Contains(t, out, "00000000: 44 49 47 45 53 54 41 20 49 55 53 54 49 4e 49 41  |DIGESTA IUSTINIA|")
	assert.Contains(t, out, "✓ as 'utf-8'")
	assert.Contains(t, out, "auto-detected encoding: utf-8")
}

func TestInspectCommand_NonPositiveBytes(t *testing.T) {
	workspace(t, "")

	for _, n := range []string{"-5", "0"} {
		_, err := execute(t, "inspect", "--bytes", n)
		require.Error(t, err, "--bytes %s", n)
		assert.Contains(t, err.Error(), "inspect.bytes")
	}
}

func TestInspectCommand_MissingFile(t *testing.T) {
	workspace(t, "")

	out, err := execute(t, "inspect", "--input", "absent.txt")
	require.ErrorIs(t, err, domain.ErrInputNotFound)
	assert.Contains(t, out, "file not found")
}

// chatServer answers chat completions with "ES: <text>" and fails any
// request whose text contains failOn.
func chatServer(t *testing.T, failOn string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		text := req.Messages[len(req.Messages)-1].Content

		w.Header().Set("Content-Type", "application/json")
		if failOn != "" && strings.Contains(text, failOn) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "ES: " + text},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranslateCommand(t *testing.T) {
	srv := chatServer(t, "Iustitia")
	dir := workspace(t, "translation:\n  provider: openai\n  api_key: test\n  model: test-model\n  base_url: "+srv.URL+"/v1\n")

	out, err := execute(t, "translate", "--delay", "0s", "--output", "translated.json")
	require.NoError(t, err)
	assert.Contains(t, out, "2 fragments (1 failed) written to translated.json")

	got, err := fragment.Read(filepath.Join(dir, "translated.json"), fragment.FormatTranslated)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "[TRADUCCIÓN FALLIDA]", got[0].Translation)
	assert.Equal(t, "Iustitia est constans et perpetua voluntas.", got[0].Text)
	assert.Equal(t, "ES: Ius est ars boni et aequi.", got[1].Translation)
}

func TestTranslateCommand_DefaultOutputPath(t *testing.T) {
	srv := chatServer(t, "")
	dir := workspace(t, "translation:\n  api_key: test\n  base_url: "+srv.URL+"/v1\n  delay_ms: -1\n")

	_, err := execute(t, "translate")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "digesto_traducido_final.json"))
	assert.NoError(t, err)
}

func TestTranslateCommand_InvalidProvider(t *testing.T) {
	workspace(t, "")

	_, err := execute(t, "translate", "--provider", "deepl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translation.provider")
}

func TestVersionFlag(t *testing.T) {
	workspace(t, "")

	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "version dev")
}
