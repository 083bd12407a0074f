package cmd

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

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/config"
	"github.com/JakeFAU/blog-exposure-checker/internal/job"
	"github.com/JakeFAU/blog-exposure-checker/internal/search"
)

const searchPage = `<html><body><ul>
<li><a href="https://blog.naver.com/beanhouse/111">원두 추천</a></li>
<li><a href="https://blog.naver.com/coffeelab/223000000001">핸드드립 가이드</a></li>
</ul></body></html>`

func TestCheckCommandPrintsResult(t *testing.T) {
	upstream := newSearchServer(t)
	cfgPath := writeConfig(t, upstream.URL, "")

	out, err := execute(t, "--config", cfgPath, "check", "coffee", "https://blog.naver.com/coffeelab/223000000001")
	require.NoError(t, err)

	var result search.ExposureResult
	require.NoError(t, json.Unmarshal(out, &result))
	require.True(t, result.Success)
	require.True(t, result.IsExposed)
	require.Equal(t, 2, *result.ExposedRank)
}

func TestCheckCommandFailsWhenIndeterminate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	cfgPath := writeConfig(t, srv.URL, "")

	_, err := execute(t, "--config", cfgPath, "check", "coffee", "https://blog.naver.com/coffeelab/1")
	require.ErrorContains(t, err, "check failed")
}

func TestSheetCommandRunsToCompletion(t *testing.T) {
	upstream := newSearchServer(t)
	seed := filepath.Join(t.TempDir(), "sheet.csv")
	rows := []string{
		"header", "header",
		seedRow("1/3", "coffee", "https://blog.naver.com/coffeelab/223000000001"),
		seedRow("1/4", "latte", "https://blog.naver.com/other/42"),
	}
	require.NoError(t, os.WriteFile(seed, []byte(strings.Join(rows, "\n")+"\n"), 0o600))
	cfgPath := writeConfig(t, upstream.URL, seed)

	out, err := execute(t, "--config", cfgPath, "sheet", "--start", "1/1", "--end", "1/31")
	require.NoError(t, err)

	var snap job.Snapshot
	require.NoError(t, json.Unmarshal(out, &snap))
	require.Equal(t, job.StatusCompleted, snap.Status)
	require.Equal(t, 2, snap.Result.Processed)
	require.Equal(t, 1, snap.Result.Exposed)
}

func TestSheetCommandRejectsBadWindow(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1", "")

	_, err := execute(t, "--config", cfgPath, "sheet", "--start", "first", "--end", "1/31")
	require.ErrorIs(t, err, job.ErrInvalidWindow)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("EXPOSURE_TEST_ONLY=from-file\nEXPOSURE_TEST_KEEP=from-file\n"), 0o600))
	t.Setenv("EXPOSURE_TEST_KEEP", "from-env")
	t.Setenv("EXPOSURE_TEST_ONLY", "")
	require.NoError(t, os.Unsetenv("EXPOSURE_TEST_ONLY"))

	require.NoError(t, loadEnv(path, true))
	require.Equal(t, "from-file", os.Getenv("EXPOSURE_TEST_ONLY"))
	require.Equal(t, "from-env", os.Getenv("EXPOSURE_TEST_KEEP"))

	missing := filepath.Join(dir, "missing.env")
	require.NoError(t, loadEnv(missing, false))
	require.ErrorContains(t, loadEnv(missing, true), "load env file")
}

func TestExplicitEnvFileMustExist(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1", "")
	missing := filepath.Join(t.TempDir(), "missing.env")

	err := run(t.Context(), []string{"--env", missing, "--config", cfgPath, "check", "coffee", "https://blog.naver.com/a/1"},
		&bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "load env file")
}

func TestAppClosedWhenCommandFails(t *testing.T) {
	var built []*closeRecorder
	original := newApp
	newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
		inner, err := original(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		rec := &closeRecorder{App: inner}
		built = append(built, rec)
		return rec, nil
	}
	t.Cleanup(func() { newApp = original })

	cfgPath := writeConfig(t, "http://127.0.0.1:1", "")

	_, err := execute(t, "--config", cfgPath, "sheet", "--start", "first", "--end", "1/31")
	require.ErrorIs(t, err, job.ErrInvalidWindow)

	_, err = execute(t, "--config", cfgPath, "sheet", "--start", "1/1")
	require.ErrorContains(t, err, "end")

	require.Len(t, built, 2)
	for _, rec := range built {
		require.Equal(t, 1, rec.closed)
	}
}

type closeRecorder struct {
	App
	closed int
}

func (c *closeRecorder) Close(ctx context.Context) {
	c.closed++
	c.App.Close(ctx)
}

func execute(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), defaultEnvFile)
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))

	var out bytes.Buffer
	err := run(t.Context(), append([]string{"--env", envFile}, args...), &out, &bytes.Buffer{})
	return out.Bytes(), err
}

func newSearchServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("query") == "coffee" {
			_, _ = w.Write([]byte(searchPage))
			return
		}
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, upstream, seed string) string {
	t.Helper()
	body := fmt.Sprintf(`logging:
  development: false
http:
  rate_limit_per_host: 0
search:
  base_url: %q
  min_delay: 0s
  max_delay: 0s
sheet:
  driver: memory
  seed_file: %q
job:
  row_delay: 0s
`, upstream+"/search", seed)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// seedRow places cells in the default layout columns.
func seedRow(date, keyword, link string) string {
	cells := make([]string, 23)
	cells[0] = date
	cells[4] = keyword
	cells[14] = "제목"
	cells[16] = link
	cells[19] = "TRUE"
	return strings.Join(cells, ",")
}
