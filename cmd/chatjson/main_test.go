package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AoWangg/chat-json/internal/aggregator"
	chaterrors "github.com/AoWangg/chat-json/internal/errors"
	"github.com/AoWangg/chat-json/internal/event"
	"github.com/AoWangg/chat-json/internal/event/eventtest"
	"github.com/AoWangg/chat-json/internal/render"
	"github.com/AoWangg/chat-json/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "testdata/chat-data.json"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfg = nil
	}()

	err := rootCmd.Execute()
	return out.String(), err
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	rootCmd.SetContext(ctx)
	defer func() {
		rootCmd.SetContext(context.Background())
		for _, c := range rootCmd.Commands() {
			c.SetContext(nil)
		}
	}()
	return runCLI(t, args...)
}

func TestReplayCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "replay", fixture, "-o", "json", "--archive.enabled=false", "--aggregator.split_tool_phases=false")
	require.NoError(t, err)

	var report render.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Groups, 1)

	g := report.Groups[0]
	assert.True(t, g.Collapsed)
	assert.True(t, g.HasResponse)
	require.Len(t, g.Thinking, 2)
	assert.Equal(t, "Hello", g.Thinking[0].Content)
	assert.Equal(t, "3 results", g.Thinking[1].Content)
	assert.Equal(t, "Answer: 42", g.FinalResponse.Content)
	assert.Equal(t, aggregator.Stats{Reasoning: 1, ToolCalls: 1, Responses: 1, Total: 3}, report.Stats)
}

func TestReplayCmd_SplitToolPhases(t *testing.T) {
	out, err := runCLI(t, "replay", fixture, "-o", "json", "--archive.enabled=false", "--aggregator.split_tool_phases=true")
	require.NoError(t, err)

	var report render.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Groups, 1)
	assert.Len(t, report.Groups[0].Thinking, 3)
	assert.Equal(t, 2, report.Stats.ToolCalls)
}

func TestReplayCmd_Table(t *testing.T) {
	out, err := runCLI(t, "replay", fixture, "-o", "table", "--archive.enabled=false", "--aggregator.split_tool_phases=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer: 42")
	assert.Contains(t, out, "Responses")
}

func TestReplayCmd_MissingFile(t *testing.T) {
	_, err := runCLI(t, "replay", "testdata/missing.json", "--archive.enabled=false")
	require.Error(t, err)
	assert.ErrorIs(t, err, chaterrors.ErrNotFound)
}

func TestReplayCmd_ArchiveRoundTrip(t *testing.T) {
	archiveDir := t.TempDir()

	_, err := runCLI(t, "replay", fixture, "-o", "json", "--archive.enabled=true", "--archive.path", archiveDir)
	require.NoError(t, err)

	out, err := runCLI(t, "archive", "ls", "-o", "json", "--archive.path", archiveDir)
	require.NoError(t, err)
	var sessions []store.SessionMeta
	require.NoError(t, json.Unmarshal([]byte(out), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, fixture, sessions[0].Source)
	assert.Equal(t, 1, sessions[0].Groups)

	out, err = runCLI(t, "archive", "show", sessions[0].ID, "-o", "json", "--archive.path", archiveDir)
	require.NoError(t, err)
	var g aggregator.Group
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, "Answer: 42", g.FinalResponse.Content)

	out, err = runCLI(t, "archive", "rm", sessions[0].ID, "--archive.path", archiveDir)
	require.NoError(t, err)
	assert.Contains(t, out, "removed")

	_, err = runCLI(t, "archive", "show", sessions[0].ID, "--archive.path", archiveDir)
	assert.ErrorIs(t, err, chaterrors.ErrNotFound)

	// Reset so later tests do not inherit archiving.
	_, err = runCLI(t, "replay", fixture, "--archive.enabled=false")
	require.NoError(t, err)
}

func TestArchiveUnlockCmd(t *testing.T) {
	archiveDir := t.TempDir()

	out, err := runCLI(t, "archive", "unlock", "--archive.path", archiveDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing removed")

	out, err = runCLI(t, "archive", "unlock", "--force", "--archive.path", archiveDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No stale lock found")
}

func TestConfigInitCmd(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	defer configInitCmd.SetOut(nil)

	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))

	configPath := filepath.Join(home, ".chatjson", "config.yaml")
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "split_tool_phases: false")
	assert.Contains(t, out.String(), "Initialized config")

	out.Reset()
	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))
	assert.Contains(t, out.String(), "already exists")
}

func TestConfigViewCmd(t *testing.T) {
	out, err := runCLI(t, "config", "view", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "keep_thinking_only: false")
	assert.Contains(t, out, "url: http://localhost:3000/api/chat-stream")
	assert.Contains(t, out, "format: yaml")
}

func TestReplayEvents_FinalizesTrailingRound(t *testing.T) {
	s := aggregator.NewSession()
	dropped := replayEvents(s, []event.Event{
		eventtest.ReasoningChunk(t, "planner", "A", "x"),
		{Kind: event.KindToolCalls},
		eventtest.MessageChunk(t, "writer", "done"),
	})

	assert.Equal(t, 1, dropped)
	require.Len(t, s.Groups(), 1)
	assert.Equal(t, "done", s.Groups()[0].FinalResponse.Content)
	assert.Empty(t, s.Live())
}

func TestExitCategory(t *testing.T) {
	assert.Equal(t, "invalid input", exitCategory(chaterrors.InvalidInput("x")))
	assert.Equal(t, "not found", exitCategory(chaterrors.NotFound("x")))
	assert.True(t, strings.HasPrefix(exitCategory(chaterrors.ErrStreamAborted), "stream failed"))
	assert.Equal(t, "canceled", exitCategory(fmt.Errorf("%w: %w", chaterrors.ErrStreamAborted, context.Canceled)))
	assert.Equal(t, "error", exitCategory(os.ErrPermission))
}

func TestWatchCmd_InterruptIsCleanStop(t *testing.T) {
	sent := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `data: {"event_type":"reasoning","data":{"reasoning_id":"A","text_chunk":"Hel"},"agent_name":"planner"}`+"\n\n")
		w.(http.Flusher).Flush()
		close(sent)
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sent
		cancel()
	}()

	out, err := runCLIContext(t, ctx, "watch", ts.URL, "-o", "json", "--stream.delay", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, `"total"`)
}
