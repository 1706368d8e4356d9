package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	base    string
	root    string
	handler http.Handler
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	base, err := filepath.EvalSymlinks(s.T().TempDir())
	require.NoError(s.T(), err)
	s.base = base
	s.root = filepath.Join(base, "photos")

	s.write("a.jpg", "same bytes")
	s.write("b.jpg", "same bytes")
	s.write("c.png", "other bytes")

	fs, err := filesystem.New(nil, zerolog.Nop())
	require.NoError(s.T(), err)
	s.handler = New("127.0.0.1:0", fs, zerolog.Nop()).Handler()
}

func (s *ServerTestSuite) write(rel, content string) string {
	path := filepath.Join(s.root, rel)
	require.NoError(s.T(), os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ServerTestSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *ServerTestSuite) TestScan() {
	rec := s.do(http.MethodPost, "/api/scan", map[string]string{"directory": s.root})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	var resp scanResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(s.T(), 3, resp.TotalFiles)
	assert.Equal(s.T(), 1, resp.TotalDuplicateGroups)
	require.Len(s.T(), resp.Duplicates, 1)
	assert.Equal(s.T(), 2, resp.Duplicates[0].Count)
	assert.True(s.T(), strings.HasSuffix(resp.Duplicates[0].Hash, "..."))
	assert.Len(s.T(), resp.Duplicates[0].Hash, 19)
	assert.Equal(s.T(), []string{filepath.Join(s.root, "a.jpg"), filepath.Join(s.root, "b.jpg")}, resp.Duplicates[0].Files)
	assert.Empty(s.T(), resp.NearDuplicates)
	// none of the fixtures decode as images
	assert.Len(s.T(), resp.Diagnostics, 3)
}

func (s *ServerTestSuite) TestScanEmptyDirectory() {
	empty := filepath.Join(s.base, "empty")
	require.NoError(s.T(), os.MkdirAll(empty, 0o755))

	rec := s.do(http.MethodPost, "/api/scan", map[string]string{"directory": empty})
	require.Equal(s.T(), http.StatusOK, rec.Code)

	body := decodeBody(s.T(), rec)
	assert.Equal(s.T(), "No media files found in the specified directory.", body["message"])
	assert.Empty(s.T(), body["duplicates"])
}

func (s *ServerTestSuite) TestScanBadRequests() {
	tests := []struct {
		name string
		body any
	}{
		{"missing directory", map[string]string{}},
		{"nonexistent directory", map[string]string{"directory": filepath.Join(s.base, "nope")}},
		{"file instead of directory", map[string]string{"directory": filepath.Join(s.root, "a.jpg")}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/api/scan", tt.body)
			assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
			assert.NotEmpty(s.T(), decodeBody(s.T(), rec)["error"])
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestRelocateAndUndo() {
	rec := s.do(http.MethodPost, "/api/relocate", map[string]any{"directory": s.root})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(s.T(), rec)
	assert.EqualValues(s.T(), 1, body["moved"])
	moves := body["moves"].([]any)
	require.Len(s.T(), moves, 1)
	move := moves[0].(map[string]any)

	review := filepath.Join(s.base, "duplicates_review")
	assert.Equal(s.T(), filepath.Join(s.root, "b.jpg"), move["source_path"])
	assert.Equal(s.T(), filepath.Join(review, "b.jpg"), move["destination_path"])
	assert.Equal(s.T(), s.root, move["root_directory"])
	assert.NoFileExists(s.T(), filepath.Join(s.root, "b.jpg"))

	rec = s.do(http.MethodPost, "/api/undo", map[string]string{
		"destination_path": move["destination_path"].(string),
		"original_path":    move["source_path"].(string),
	})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(s.T(), true, decodeBody(s.T(), rec)["success"])
	assert.FileExists(s.T(), filepath.Join(s.root, "b.jpg"))

	// the destination is gone now
	rec = s.do(http.MethodPost, "/api/undo", map[string]string{
		"destination_path": move["destination_path"].(string),
		"original_path":    move["source_path"].(string),
	})
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestMovesAndUndoByPrefix() {
	s.write("nested/d.jpg", "same bytes")
	rec := s.do(http.MethodPost, "/api/relocate", map[string]any{"directory": s.root})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())
	review := filepath.Join(s.base, "duplicates_review")

	rec = s.do(http.MethodGet, "/api/moves", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.EqualValues(s.T(), 2, decodeBody(s.T(), rec)["count"])

	rec = s.do(http.MethodGet, "/api/moves?prefix="+url.QueryEscape(filepath.Join(review, "nested")), nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.EqualValues(s.T(), 1, decodeBody(s.T(), rec)["count"])

	rec = s.do(http.MethodGet, "/api/moves?destination="+url.QueryEscape(filepath.Join(review, "b.jpg")), nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), filepath.Join(s.root, "b.jpg"), decodeBody(s.T(), rec)["source_path"])

	rec = s.do(http.MethodGet, "/api/moves?destination="+url.QueryEscape(filepath.Join(review, "a.jpg")), nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/undo", map[string]string{"prefix": review})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())
	var undo types.UndoResult
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &undo))
	assert.Len(s.T(), undo.Restored, 2)
	assert.Empty(s.T(), undo.Errors)
	assert.FileExists(s.T(), filepath.Join(s.root, "b.jpg"))
	assert.FileExists(s.T(), filepath.Join(s.root, "nested", "d.jpg"))

	rec = s.do(http.MethodGet, "/api/moves", nil)
	assert.EqualValues(s.T(), 0, decodeBody(s.T(), rec)["count"])

	rec = s.do(http.MethodGet, "/api/stats", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	stats := decodeBody(s.T(), rec)
	assert.EqualValues(s.T(), 0, stats["journal_entries"])
	journal := stats["journal"].(map[string]any)
	assert.EqualValues(s.T(), 2, journal["records"])
	assert.EqualValues(s.T(), 2, journal["removals"])
	assert.EqualValues(s.T(), 4, stats["file_operations"].(map[string]any)["successful_ops"])
	assert.EqualValues(s.T(), 1, stats["scanner"].(map[string]any)["successful_ops"])
}

// interruptedEngine reports a relocation that was cancelled after one move.
type interruptedEngine struct {
	*filesystem.FileSystem
}

func (e interruptedEngine) ScanAndRelocate(ctx context.Context, root, destination string, dryRun bool) (*types.ScanReport, *types.RelocationResult, error) {
	result := &types.RelocationResult{
		Moved: 1,
		Moves: []types.MoveRecord{{SourcePath: filepath.Join(root, "b.jpg"), DestinationPath: filepath.Join(destination, "b.jpg")}},
		Errors: []types.Diagnostic{{
			Path: filepath.Join(root, "c.jpg"),
			Op:   types.OpMove,
			Err:  context.Canceled,
		}},
	}
	return &types.ScanReport{}, result, context.Canceled
}

func (s *ServerTestSuite) TestRelocateInterruptedKeepsMoves() {
	fs, err := filesystem.New(nil, zerolog.Nop())
	require.NoError(s.T(), err)
	s.handler = NewRouter(NewHandler(interruptedEngine{fs}, zerolog.Nop()), zerolog.Nop())

	rec := s.do(http.MethodPost, "/api/relocate", map[string]any{"directory": s.root, "destination": "/review"})
	require.Equal(s.T(), http.StatusServiceUnavailable, rec.Code)

	body := decodeBody(s.T(), rec)
	assert.EqualValues(s.T(), 1, body["moved"])
	assert.Len(s.T(), body["moves"], 1)
	assert.Len(s.T(), body["errors"], 1)
	assert.Equal(s.T(), context.Canceled.Error(), body["error"])
}

func (s *ServerTestSuite) TestRelocateDryRun() {
	dest := filepath.Join(s.base, "review")
	rec := s.do(http.MethodPost, "/api/relocate", map[string]any{"directory": s.root, "destination": dest, "dry_run": true})
	require.Equal(s.T(), http.StatusOK, rec.Code)

	body := decodeBody(s.T(), rec)
	assert.Equal(s.T(), true, body["dry_run"])
	assert.EqualValues(s.T(), 0, body["moved"])
	assert.Len(s.T(), body["moves"], 1)
	assert.FileExists(s.T(), filepath.Join(s.root, "b.jpg"))
	assert.NoDirExists(s.T(), dest)
}

func (s *ServerTestSuite) TestUndoConflict() {
	moved := filepath.Join(s.base, "review", "a.jpg")
	require.NoError(s.T(), os.MkdirAll(filepath.Dir(moved), 0o755))
	require.NoError(s.T(), os.WriteFile(moved, []byte("x"), 0o644))

	rec := s.do(http.MethodPost, "/api/undo", map[string]string{
		"destination_path": moved,
		"original_path":    filepath.Join(s.root, "a.jpg"),
	})
	assert.Equal(s.T(), http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/undo", map[string]string{"destination_path": moved})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestOpenFile() {
	rec := s.do(http.MethodGet, "/api/open-file?path="+url.QueryEscape(filepath.Join(s.root, "c.png")), nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(s.T(), "other bytes", rec.Body.String())

	rec = s.do(http.MethodGet, "/api/open-file?path="+url.QueryEscape(filepath.Join(s.root, "missing.png")), nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/open-file?path="+url.QueryEscape(s.root), nil)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/open-file", nil)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestHealthAndMetrics() {
	rec := s.do(http.MethodGet, "/health/live", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "ok", decodeBody(s.T(), rec)["status"])

	rec = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "dupefinder_http_requests_total")
}

func (s *ServerTestSuite) TestNoDeleteEndpoint() {
	rec := s.do(http.MethodPost, "/api/delete-file", map[string]string{"file_path": filepath.Join(s.root, "a.jpg")})
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
	assert.FileExists(s.T(), filepath.Join(s.root, "a.jpg"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	fs, err := filesystem.New(nil, zerolog.Nop())
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(listener.Addr().String(), fs, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
