// Package godbolt is a minimal client for the Compiler Explorer REST API
// (https://godbolt.org/api). It covers the four operations the bot needs:
// listing languages, listing compilers, compiling, and executing.
package godbolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Compiler Explorer instance.
const DefaultBaseURL = "https://godbolt.org"

// Language identifies a source language supported by the remote service.
type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Compiler identifies one compiler/toolchain for a language.
type Compiler struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Semver string `json:"semver"`
}

// CompileResultKind tags the two outcomes of a compilation.
type CompileResultKind int

const (
	CompileAssembly CompileResultKind = iota
	CompileDiagnostics
)

// CompileResult is either the produced assembly listing or the compiler's
// diagnostic output, never both.
type CompileResult struct {
	Kind CompileResultKind
	Text string
}

// ExecResultKind tags the outcomes of a compile-and-execute request.
type ExecResultKind int

const (
	// ExecBuildFailure means the code did not build; Text holds the build stderr.
	ExecBuildFailure ExecResultKind = iota
	// ExecRunSuccess means the binary ran; Stdout, Stderr and ExitCode are set.
	ExecRunSuccess
	// ExecProtocolAnomaly means the API answered but carried no execution
	// result; Text holds a short description.
	ExecProtocolAnomaly
)

// ExecResult is the outcome of an execute request.
type ExecResult struct {
	Kind     ExecResultKind
	Text     string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Client talks to one Compiler Explorer instance. It holds no state beyond
// the HTTP client and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the given base URL. An empty baseURL means
// the public godbolt.org instance.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Languages lists every language the remote service supports.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var langs []Language
	if err := c.getJSON(ctx, "/api/languages", &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// Compilers lists the compilers for one language, or all compilers when
// languageID is empty.
func (c *Client) Compilers(ctx context.Context, languageID string) ([]Compiler, error) {
	path := "/api/compilers"
	if languageID != "" {
		path += "/" + url.PathEscape(languageID)
	}
	path += "?fields=id,name,semver"

	var compilers []Compiler
	if err := c.getJSON(ctx, path, &compilers); err != nil {
		return nil, err
	}
	return compilers, nil
}

// compile request/response wire shapes. Only the fields the bot consumes are
// mapped; the API returns far more.
type compileRequest struct {
	Source  string         `json:"source"`
	Options compileOptions `json:"options"`
}

type compileOptions struct {
	UserArguments     string             `json:"userArguments"`
	Filters           map[string]bool    `json:"filters,omitempty"`
	ExecuteParameters *executeParameters `json:"executeParameters,omitempty"`
}

type executeParameters struct {
	Args  []string `json:"args"`
	Stdin string   `json:"stdin"`
}

type outputLine struct {
	Text string `json:"text"`
}

type compileResponse struct {
	Code       int           `json:"code"`
	Stdout     []outputLine  `json:"stdout"`
	Stderr     []outputLine  `json:"stderr"`
	Asm        []outputLine  `json:"asm"`
	ExecResult *execResponse `json:"execResult"`
}

type execResponse struct {
	Code        int            `json:"code"`
	DidExecute  bool           `json:"didExecute"`
	Stdout      []outputLine   `json:"stdout"`
	Stderr      []outputLine   `json:"stderr"`
	BuildResult *buildResponse `json:"buildResult"`
}

type buildResponse struct {
	Code   int          `json:"code"`
	Stderr []outputLine `json:"stderr"`
}

// Compile submits code to the given compiler and returns either the
// assembly listing or the compiler diagnostics.
func (c *Client) Compile(ctx context.Context, compilerID, code string) (CompileResult, error) {
	body := compileRequest{
		Source:  code,
		Options: compileOptions{Filters: map[string]bool{"intel": true}},
	}

	var resp compileResponse
	if err := c.postJSON(ctx, compilePath(compilerID), body, &resp); err != nil {
		return CompileResult{}, err
	}

	if resp.Code != 0 {
		return CompileResult{Kind: CompileDiagnostics, Text: joinLines(resp.Stderr)}, nil
	}
	return CompileResult{Kind: CompileAssembly, Text: joinLines(resp.Asm)}, nil
}

// Execute compiles and runs code with the given stdin. A response that
// carries no execution result is reported as ExecProtocolAnomaly rather
// than an error: the transport worked, the payload did not.
func (c *Client) Execute(ctx context.Context, compilerID, code, stdin string) (ExecResult, error) {
	body := compileRequest{
		Source: code,
		Options: compileOptions{
			Filters:           map[string]bool{"execute": true},
			ExecuteParameters: &executeParameters{Args: []string{}, Stdin: stdin},
		},
	}

	var resp compileResponse
	if err := c.postJSON(ctx, compilePath(compilerID), body, &resp); err != nil {
		return ExecResult{}, err
	}

	er := resp.ExecResult
	if er == nil {
		return ExecResult{Kind: ExecProtocolAnomaly, Text: "response contained no execution result"}, nil
	}
	if er.BuildResult != nil && er.BuildResult.Code != 0 {
		return ExecResult{Kind: ExecBuildFailure, Text: joinLines(er.BuildResult.Stderr)}, nil
	}
	return ExecResult{
		Kind:     ExecRunSuccess,
		Stdout:   joinLines(er.Stdout),
		Stderr:   joinLines(er.Stderr),
		ExitCode: er.Code,
	}, nil
}

func compilePath(compilerID string) string {
	return "/api/compiler/" + url.PathEscape(compilerID) + "/compile"
}

func joinLines(lines []outputLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "\n")
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("godbolt api call",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
