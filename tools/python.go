package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tandemkit/tandem/schema"
)

const (
	defaultPythonTimeout = 60 * time.Second
	maxOutputBytes       = 50 * 1024
)

// PythonTool runs a script with a local interpreter in a scratch
// directory. The process is the sandbox boundary; anything beyond
// timeout and output capping is out of scope here.
type PythonTool struct {
	*BaseTool
	interpreter string
	workDir     string
}

type pythonArgs struct {
	Code    string `json:"code"`
	Timeout int    `json:"timeout,omitempty"`
}

type pythonResponse struct {
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr,omitempty"`
	ExitCode  int    `json:"exit_code"`
	Truncated bool   `json:"truncated,omitempty"`
}

// PythonOption configures the python tool.
type PythonOption func(*PythonTool)

// WithInterpreter overrides the interpreter binary.
func WithInterpreter(path string) PythonOption {
	return func(t *PythonTool) { t.interpreter = path }
}

// WithWorkDir sets the scratch directory for generated files (charts,
// CSVs) so callers can collect them after the run.
func WithWorkDir(dir string) PythonOption {
	return func(t *PythonTool) { t.workDir = dir }
}

// NewPythonTool creates the run_python tool.
func NewPythonTool(opts ...PythonOption) *PythonTool {
	toolSchema := CreateToolSchema(
		"Execute Python code and return captured stdout",
		map[string]interface{}{
			"code":    StringProperty("Python source to execute. Print values you want to see; plots should be saved to files."),
			"timeout": IntegerProperty("Timeout in seconds (default 60)"),
		},
		[]string{"code"},
	)
	t := &PythonTool{
		BaseTool:    NewBaseTool("run_python", "Executes Python code in a scratch directory", toolSchema),
		interpreter: "python3",
	}
	cfg := *DefaultToolConfig
	cfg.Timeout = defaultPythonTimeout
	t.SetConfig(&cfg)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *PythonTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args pythonArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, schema.NewToolError(t.Name(), "decode", err)
	}
	if strings.TrimSpace(args.Code) == "" {
		return nil, schema.NewValidationError("code", args.Code, "code cannot be empty")
	}

	workDir := t.workDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "tandem-python-")
		if err != nil {
			return nil, schema.NewToolError(t.Name(), "workdir", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	script := filepath.Join(workDir, "script.py")
	if err := os.WriteFile(script, []byte(args.Code), 0o600); err != nil {
		return nil, schema.NewToolError(t.Name(), "write", err)
	}

	timeout := defaultPythonTimeout
	if args.Timeout > 0 {
		timeout = time.Duration(args.Timeout) * time.Second
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, t.interpreter, script)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return nil, schema.NewToolError(t.Name(), "run", fmt.Errorf("%w after %s", schema.ErrToolTimeout, timeout))
	}

	var truncated bool
	out := pythonResponse{
		Stdout: truncateOutput(stdout.String(), &truncated),
		Stderr: truncateOutput(stderr.String(), &truncated),
	}
	out.Truncated = truncated
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			out.ExitCode = exitErr.ExitCode()
		} else {
			return nil, schema.NewToolError(t.Name(), "run", err)
		}
	}

	return json.Marshal(out)
}

// truncateOutput keeps the tail of oversized output; the end of a trace
// is worth more than the beginning.
func truncateOutput(s string, truncated *bool) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	*truncated = true
	return "...(truncated)...\n" + s[len(s)-maxOutputBytes:]
}
