package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func modeOf(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.Mode() & 0o777
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestLLMCache_StrictSaveWithSamplingKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "llm")
	c := &LLMCache{Dir: dir, StrictPerms: true}
	key := KeyFrom("deepseek-chat", "写标题：\n正文", "0.8", "0.9", "2000")
	if key == KeyFrom("deepseek-chat", "写标题：\n正文", "0.2", "0.9", "2000") {
		t.Fatal("temperature must change the key")
	}
	records := []byte(`[{"rank":1,"title":"一个足够长的标题","method":"反差","analysis":"好"}]`)
	for i := 0; i < 2; i++ {
		if err := c.Save(context.Background(), key, records); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if got := modeOf(t, dir); got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	if got := modeOf(t, filepath.Join(dir, key+".json")); got != 0o600 {
		t.Fatalf("entry mode = %o, want 0600", got)
	}
	assertNoTempFiles(t, dir)
}

func TestLLMCache_StrictTightensExistingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "llm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	c := &LLMCache{Dir: dir, StrictPerms: true}
	if _, ok, err := c.Get(context.Background(), KeyFrom("m", "p")); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if got := modeOf(t, dir); got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
}

func TestHTTPCache_StrictSaveAndTouchOnRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "http")
	c := &HTTPCache{Dir: dir, StrictPerms: true}
	page := "https://example.com/article"
	if err := c.Save(context.Background(), page, "text/html; charset=utf-8", `"v1"`, "", []byte("<p>正文</p>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := modeOf(t, dir); got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	key := c.key(page)
	body := filepath.Join(dir, key+".body")
	for _, f := range []string{body, filepath.Join(dir, key+".meta.json")} {
		if got := modeOf(t, f); got != 0o600 {
			t.Fatalf("%s mode = %o, want 0600", filepath.Base(f), got)
		}
	}
	assertNoTempFiles(t, dir)

	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(body, old, old); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LoadBody(context.Background(), page); err != nil {
		t.Fatalf("load body: %v", err)
	}
	info, err := os.Stat(body)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().After(old.Add(time.Hour)) {
		t.Fatalf("body mtime %v was not refreshed on read", info.ModTime())
	}
}
