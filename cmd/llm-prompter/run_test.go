package llmprompter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const (
	testModelName   = "test-model"
	ollamaChatPath  = "/api/chat"
	payloadMarker   = "{{payload}}"
	jsonMarker      = "{{json}}"
	configFileName  = "llm-prompter.yaml"
	payloadFileName = "story.txt"
)

type testWorkspace struct {
	root       string
	payloadDir string
	answerDir  string
	hashDir    string
	logDir     string
}

func newTestWorkspace(t *testing.T) testWorkspace {
	t.Helper()
	root := t.TempDir()
	workspace := testWorkspace{
		root:       root,
		payloadDir: filepath.Join(root, "payloads"),
		answerDir:  filepath.Join(root, "answers"),
		hashDir:    filepath.Join(root, "hashes"),
		logDir:     filepath.Join(root, "logs"),
	}
	if mkdirErr := os.MkdirAll(workspace.payloadDir, 0o755); mkdirErr != nil {
		t.Fatalf("create payload dir: %v", mkdirErr)
	}
	return workspace
}

func (workspace testWorkspace) writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if writeErr := os.WriteFile(path, []byte(content), 0o600); writeErr != nil {
		t.Fatalf("write %s: %v", path, writeErr)
	}
}

func (workspace testWorkspace) writeConfig(t *testing.T, endpoint string, templateFiles ...string) string {
	t.Helper()
	var builder strings.Builder
	fmt.Fprintf(&builder, "log:\n  dir: %q\n  mode: rewrite\n  level: debug\n", workspace.logDir)
	fmt.Fprintf(&builder, "ai:\n  kind: ollama\n  url: %q\n  timeout: 5000\n  model: %s\n", endpoint, testModelName)
	fmt.Fprintf(&builder, "prompt:\n  dir: %q\n  template_replace_payload: %q\n  template_replace_json: %q\n", workspace.payloadDir, payloadMarker, jsonMarker)
	if len(templateFiles) > 0 {
		builder.WriteString("  template_file:\n")
		for _, templateFile := range templateFiles {
			fmt.Fprintf(&builder, "    - %q\n", templateFile)
		}
	}
	fmt.Fprintf(&builder, "answer:\n  dir: %q\n  hash_dir: %q\n", workspace.answerDir, workspace.hashDir)

	configPath := filepath.Join(workspace.root, configFileName)
	workspace.writeFile(t, configPath, builder.String())
	return configPath
}

type ollamaStub struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newOllamaStub(t *testing.T, answer func(userPrompt string) string) *ollamaStub {
	t.Helper()
	stub := &ollamaStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != ollamaChatPath {
			t.Errorf("unexpected path %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		stub.calls.Add(1)
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if decodeErr := json.NewDecoder(request.Body).Decode(&payload); decodeErr != nil {
			t.Errorf("decode request: %v", decodeErr)
		}
		if payload.Model != testModelName {
			t.Errorf("expected model %s, got %s", testModelName, payload.Model)
		}
		userPrompt := payload.Messages[len(payload.Messages)-1].Content
		response := map[string]any{"message": map[string]string{"role": "assistant", "content": answer(userPrompt)}, "done": true}
		if encodeErr := json.NewEncoder(writer).Encode(response); encodeErr != nil {
			t.Errorf("encode response: %v", encodeErr)
		}
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	command := newRootCommand()
	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs(args)
	executionErr := command.Execute()
	return output.String(), executionErr
}

func readAnswer(t *testing.T, path string) string {
	t.Helper()
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read answer %s: %v", path, readErr)
	}
	return string(content)
}

func TestRunCommandBasicModeAndHashSkip(t *testing.T) {
	workspace := newTestWorkspace(t)
	stub := newOllamaStub(t, func(userPrompt string) string {
		if userPrompt != "hello" {
			t.Errorf("expected raw payload as prompt, got %q", userPrompt)
		}
		return "world"
	})
	workspace.writeFile(t, filepath.Join(workspace.payloadDir, payloadFileName), "hello")
	configPath := workspace.writeConfig(t, stub.server.URL)

	output, runErr := executeCommand(t, "run", "--config", configPath)
	if runErr != nil {
		t.Fatalf("first run failed: %v\n%s", runErr, output)
	}
	if got := readAnswer(t, filepath.Join(workspace.answerDir, payloadFileName)); got != "world" {
		t.Fatalf("expected answer world, got %q", got)
	}
	if !strings.Contains(output, "succeeded") {
		t.Fatalf("expected summary in output, got %q", output)
	}
	if _, statErr := os.Stat(filepath.Join(workspace.hashDir, payloadFileName+".hash")); statErr != nil {
		t.Fatalf("expected hash file: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(workspace.logDir, "llm-prompter.log")); statErr != nil {
		t.Fatalf("expected log file: %v", statErr)
	}

	if _, secondErr := executeCommand(t, "run", "--config", configPath); secondErr != nil {
		t.Fatalf("second run failed: %v", secondErr)
	}
	if calls := stub.calls.Load(); calls != 1 {
		t.Fatalf("expected unchanged payload to be skipped, got %d calls", calls)
	}

	if _, forcedErr := executeCommand(t, "run", "--config", configPath, "--force"); forcedErr != nil {
		t.Fatalf("forced run failed: %v", forcedErr)
	}
	if calls := stub.calls.Load(); calls != 2 {
		t.Fatalf("expected --force to reprocess, got %d calls", calls)
	}
}

func TestRunCommandJSONPipe(t *testing.T) {
	workspace := newTestWorkspace(t)
	stub := newOllamaStub(t, func(userPrompt string) string {
		if strings.HasPrefix(userPrompt, "extract") {
			return "```json\n{\"a\":1}\n```"
		}
		if !strings.Contains(userPrompt, "\"a\": 1") {
			t.Errorf("expected chained context in prompt, got %q", userPrompt)
		}
		return `{"a":1,"b":2}`
	})
	firstTemplate := filepath.Join(workspace.root, "first.yaml")
	secondTemplate := filepath.Join(workspace.root, "second.yaml")
	workspace.writeFile(t, firstTemplate, "- user: \"extract {{payload}}\"\n  jsonresponse: '{\"type\":\"object\"}'\n  segment:\n    convert: \"@extract-json\"\n")
	workspace.writeFile(t, secondTemplate, "- user: \"enrich {{json}}\"\n  jsonresponse: '{\"type\":\"object\"}'\n")
	workspace.writeFile(t, filepath.Join(workspace.payloadDir, payloadFileName), "story")
	configPath := workspace.writeConfig(t, stub.server.URL, firstTemplate, secondTemplate)

	output, runErr := executeCommand(t, "run", "--config", configPath)
	if runErr != nil {
		t.Fatalf("run failed: %v\n%s", runErr, output)
	}
	expected := "{\n    \"a\": 1,\n    \"b\": 2\n}"
	if got := readAnswer(t, filepath.Join(workspace.answerDir, payloadFileName)); got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
	if !strings.Contains(output, "json-pipe") {
		t.Fatalf("expected json-pipe mode in summary, got %q", output)
	}
}

func TestRunCommandRejectsMixedTemplates(t *testing.T) {
	workspace := newTestWorkspace(t)
	stub := newOllamaStub(t, func(string) string { return "unused" })
	mixedTemplate := filepath.Join(workspace.root, "mixed.yaml")
	workspace.writeFile(t, mixedTemplate, "- user: a\n  jsonresponse: '{}'\n- user: b\n")
	workspace.writeFile(t, filepath.Join(workspace.payloadDir, payloadFileName), "story")
	configPath := workspace.writeConfig(t, stub.server.URL, mixedTemplate)

	_, runErr := executeCommand(t, "run", "--config", configPath)
	if runErr == nil || !strings.Contains(runErr.Error(), "jsonresponse") {
		t.Fatalf("expected homogeneity error, got %v", runErr)
	}
	if calls := stub.calls.Load(); calls != 0 {
		t.Fatalf("expected no completion calls, got %d", calls)
	}
}

func TestRunCommandLogLevelFromEnvironment(t *testing.T) {
	workspace := newTestWorkspace(t)
	stub := newOllamaStub(t, func(string) string { return "ok" })
	workspace.writeFile(t, filepath.Join(workspace.payloadDir, payloadFileName), "hello")
	configPath := workspace.writeConfig(t, stub.server.URL)
	t.Setenv("LLM_PROMPTER_CONFIG", configPath)
	t.Setenv("LLM_PROMPTER_LOG_LEVEL", "chatty")

	_, runErr := executeCommand(t, "run")
	if runErr == nil || !strings.Contains(runErr.Error(), "chatty") {
		t.Fatalf("expected environment log level to be applied, got %v", runErr)
	}
}

func TestRunCommandFailsOnMissingExplicitConfig(t *testing.T) {
	workspace := newTestWorkspace(t)
	stub := newOllamaStub(t, func(string) string { return "unused" })
	workspace.writeFile(t, filepath.Join(workspace.payloadDir, payloadFileName), "hello")
	workspace.writeConfig(t, stub.server.URL)
	t.Chdir(workspace.root)

	missingPath := filepath.Join(workspace.root, "typo.yaml")
	_, runErr := executeCommand(t, "run", "--config", missingPath)
	if runErr == nil || !strings.Contains(runErr.Error(), missingPath) {
		t.Fatalf("expected missing config error, got %v", runErr)
	}
	if calls := stub.calls.Load(); calls != 0 {
		t.Fatalf("expected no completion calls, got %d", calls)
	}
}

func TestListCommandShowsMode(t *testing.T) {
	workspace := newTestWorkspace(t)
	templatePath := filepath.Join(workspace.root, "plain.yaml")
	workspace.writeFile(t, templatePath, "- user: \"summarize {{payload}}\"\n  llm:\n    model: other\n")
	configPath := workspace.writeConfig(t, "http://127.0.0.1:1", templatePath)

	output, listErr := executeCommand(t, "list", "--config", configPath)
	if listErr != nil {
		t.Fatalf("list failed: %v", listErr)
	}
	for _, expected := range []string{"mode\ttemplate", "item 0:0", "model=other", "@extract-json"} {
		if !strings.Contains(output, expected) {
			t.Fatalf("expected %q in output:\n%s", expected, output)
		}
	}
}

func TestInitCommandsWriteStarterFiles(t *testing.T) {
	directory := t.TempDir()

	if _, configErr := executeCommand(t, "init", "config", directory); configErr != nil {
		t.Fatalf("init config: %v", configErr)
	}
	configContent := readAnswer(t, filepath.Join(directory, configTemplateFileName))
	if !strings.Contains(configContent, "kind: ollama") {
		t.Fatalf("expected default provider in config template, got:\n%s", configContent)
	}

	if _, promptErr := executeCommand(t, "init", "prompt", directory, "--json"); promptErr != nil {
		t.Fatalf("init prompt: %v", promptErr)
	}
	promptContent := readAnswer(t, filepath.Join(directory, promptTemplateFileName))
	if !strings.Contains(promptContent, "jsonresponse") || !strings.Contains(promptContent, "convert") {
		t.Fatalf("expected json prompt template, got:\n%s", promptContent)
	}
}
