// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shield/cli/internal/backend"
	"shield/cli/internal/config"
	serr "shield/cli/internal/errors"
	"shield/cli/internal/httperrors"
	"shield/cli/internal/planner"
	"shield/cli/internal/watermark"
)

// fakeAPI returns canned results keyed by source code.
type fakeAPI struct {
	calls   int
	fail    map[string]error
	results map[string]*backend.Result
	seen    []backend.Request
}

func (f *fakeAPI) Protect(_ context.Context, req backend.Request) (*backend.Result, error) {
	f.calls++
	f.seen = append(f.seen, req)
	if err, ok := f.fail[req.Code]; ok {
		return nil, err
	}
	if res, ok := f.results[req.Code]; ok {
		return res, nil
	}
	return &backend.Result{Code: watermark.Apply("/*obf*/" + req.Code)}, nil
}

func (f *fakeAPI) VerifyToken(context.Context, string) error { return nil }

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func read(t *testing.T, p string) []byte {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return b
}

func TestRun_InPlaceWithBackup(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "var a=1;")
	api := &fakeAPI{}
	r := &Runner{API: api, Token: "t", Config: config.Default(), Backup: true}

	sum, err := r.Run(context.Background(), []string{a})
	require.NoError(t, err)
	require.Len(t, sum.Succeeded(), 1)
	assert.Equal(t, a, sum.Succeeded()[0].Output)

	assert.Equal(t, "var a=1;", string(read(t, a+".backup")))
	out := read(t, a)
	assert.True(t, bytes.HasPrefix(out, watermark.BOM))
	assert.True(t, watermark.IsAlreadyProtected(out))

	require.Len(t, api.seen, 1)
	assert.Equal(t, "t", api.seen[0].Token)
	assert.Equal(t, config.Defaults(), api.seen[0].Options)
}

func TestRun_NoBackup(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "x")
	r := &Runner{API: &fakeAPI{}, Config: config.Default(), Output: planner.Options{OutputExt: ".p"}}

	_, err := r.Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.NoFileExists(t, a+".backup")
	assert.FileExists(t, filepath.Join(dir, "a.p.js"))
	assert.Equal(t, "x", string(read(t, a)))
}

func TestRun_ContinuesAfterFailures(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "big")
	b := write(t, dir, "b.js", "ok")
	missing := filepath.Join(dir, "missing.js")
	api := &fakeAPI{fail: map[string]error{
		"big": serr.New(serr.RemoteService, httperrors.MsgRateLimited),
	}}
	r := &Runner{API: api, Config: config.Default()}

	sum, err := r.Run(context.Background(), []string{a, missing, b})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total())
	require.Len(t, sum.Failed(), 2)
	assert.Equal(t, a, sum.Failed()[0].Input)
	assert.Equal(t, "Protection skipped to avoid performance issues in final build. Reducing file size...", sum.Failed()[0].Reason)
	assert.Contains(t, sum.Failed()[1].Reason, "File not found")
	require.Len(t, sum.Succeeded(), 1)
	assert.Equal(t, b, sum.Succeeded()[0].Input)
	assert.Equal(t, 2, api.calls)
}

func TestRun_AlreadyProtectedIsSkipped(t *testing.T) {
	dir := t.TempDir()
	protected := string(watermark.WithBOM(watermark.Apply("obf()")))
	p := write(t, dir, "done.js", protected)
	api := &fakeAPI{}
	r := &Runner{API: api, Config: config.Default(), Backup: true}

	sum, err := r.Run(context.Background(), []string{p})
	require.NoError(t, err)
	require.Len(t, sum.Skipped(), 1)
	assert.Equal(t, ReasonAlreadyProtected, sum.Skipped()[0].Reason)
	assert.Empty(t, sum.Failed())
	assert.Zero(t, api.calls)
	assert.Equal(t, protected, string(read(t, p)))
	assert.NoFileExists(t, p+".backup")
}

func TestRun_MapAndSymbols(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "src")
	api := &fakeAPI{results: map[string]*backend.Result{
		"src": {Code: watermark.Apply("obf"), SourceMap: `{"version":3}`, Symbols: json.RawMessage(`{"a":"_0x1"}`)},
	}}
	out := filepath.Join(dir, "nested", "deeper")
	r := &Runner{API: api, Config: config.Default(), Output: planner.Options{
		OutputDir: out, SourceMap: true, Symbols: true,
	}}

	_, err := r.Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.Equal(t, `{"version":3}`, string(read(t, filepath.Join(out, "a.js.map"))))
	assert.Equal(t, "{\n  \"a\": \"_0x1\"\n}\n", string(read(t, filepath.Join(out, "a.js.symbols.json"))))
}

func TestRun_MapNotWrittenWhenAbsentOrUnrequested(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "src")
	api := &fakeAPI{results: map[string]*backend.Result{
		"src": {Code: watermark.Apply("obf"), SourceMap: "map"},
	}}
	r := &Runner{API: api, Config: config.Default(), Output: planner.Options{Symbols: true}}

	_, err := r.Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.NoFileExists(t, a+".map")
	assert.NoFileExists(t, a+".symbols.json")
}

func TestRun_SideFileFailureLeavesInputIntact(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "src")
	require.NoError(t, os.MkdirAll(a+".symbols.json", 0o755))
	api := &fakeAPI{results: map[string]*backend.Result{
		"src": {Code: watermark.Apply("obf"), Symbols: json.RawMessage(`{"a":"_0x1"}`)},
	}}
	r := &Runner{API: api, Config: config.Default(), Output: planner.Options{Symbols: true}}

	sum, err := r.Run(context.Background(), []string{a})
	require.NoError(t, err)
	require.Len(t, sum.Failed(), 1)
	assert.Equal(t, "src", string(read(t, a)))
}

func TestRun_Notify(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "x")
	var events []Event
	r := &Runner{API: &fakeAPI{}, Config: config.Default(), Notify: func(ev Event) { events = append(events, ev) }}

	_, err := r.Run(context.Background(), []string{a})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventFileStarted, events[0].Type)
	assert.Equal(t, EventFileDone, events[1].Type)
	require.NotNil(t, events[1].Outcome)
	assert.Equal(t, StatusSucceeded, events[1].Outcome.Status)
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.js", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeAPI{}

	sum, err := (&Runner{API: api, Config: config.Default()}).Run(ctx, []string{a})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Total())
	assert.Zero(t, api.calls)
}

// Two files protected into an output directory through the real HTTP
// client, then a second run that includes the produced file.
func TestRun_OutputDirRoundTrip(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			Code string `json:"code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]string{"output": strings.ToUpper(body.Code)})
	}))
	defer srv.Close()

	dir := t.TempDir()
	chdirForTest(t, dir)
	write(t, dir, "a.js", "var a;")
	write(t, dir, "b.js", "var b;")
	require.NoError(t, os.Mkdir("dist", 0o755))

	opts := planner.Options{OutputDir: "dist", OutputExt: ".protected"}
	r := &Runner{API: backend.New(srv.URL), Token: "tok", Config: config.Default(), Output: opts, Backup: true}

	sum, err := r.Run(context.Background(), []string{"a.js", "b.js"})
	require.NoError(t, err)
	require.Len(t, sum.Succeeded(), 2)

	for _, p := range []string{"dist/a.protected.js", "dist/b.protected.js"} {
		b := read(t, p)
		require.True(t, bytes.HasPrefix(b, watermark.BOM), p)
		line, _, _ := strings.Cut(string(b[len(watermark.BOM):]), "\n")
		assert.Regexp(t, `^// Protected by Shield \[[0-9a-f]{8}\]$`, line)
	}

	sum, err = r.Run(context.Background(), []string{"a.js", "b.js", filepath.Join("dist", "a.protected.js")})
	require.NoError(t, err)
	require.Len(t, sum.Skipped(), 1)
	assert.Equal(t, filepath.Join("dist", "a.protected.js"), sum.Skipped()[0].Input)
	assert.Equal(t, ReasonAlreadyProtected, sum.Skipped()[0].Reason)
	assert.Empty(t, sum.Failed())
	assert.NoFileExists(t, filepath.Join("dist", "a.protected.protected.js"))
	assert.Equal(t, int32(4), calls.Load())
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadSource(filepath.Join(dir, "nope.js"))
	assert.True(t, serr.Is(err, serr.FileIO))

	p := write(t, dir, "p.js", watermark.Apply("x"))
	_, err = ReadSource(p)
	assert.True(t, serr.Is(err, serr.AlreadyProtected))

	q := write(t, dir, "q.js", "plain")
	b, err := ReadSource(q)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(b))
}
