package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"

	"strbuf/internal/config"
	"strbuf/internal/strbuf"
	"strbuf/internal/trace"
)

func testSession(mutate func(*config.Config)) *session {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	return &session{cfg: cfg, failAfter: -1, tracer: trace.Nop}
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestTrimLines(t *testing.T) {
	sess := testSession(nil)
	got, err := trimLines(sess, "in", []byte("\t Hello World \r\n  x\n\n   tail  "))
	if err != nil {
		t.Fatalf("trimLines: %v", err)
	}
	if want := "Hello World\nx\n\ntail"; string(got) != want {
		t.Fatalf("trimLines = %q, want %q", got, want)
	}
}

func TestTrimLinesRejectsLongLine(t *testing.T) {
	sess := testSession(func(c *config.Config) { c.Heap.MaxLength = 4 })
	_, err := trimLines(sess, "in", []byte("ok\ntoo long\n"))
	if strbuf.CodeOf(err) != strbuf.CodeSafety {
		t.Fatalf("error = %v, want safety code", err)
	}
	if !strings.Contains(err.Error(), "in:2:") {
		t.Fatalf("error %q lacks file and line", err)
	}
}

func TestTrimLinesAllocFailure(t *testing.T) {
	sess := testSession(nil)
	sess.failAfter = 0
	_, err := trimLines(sess, "in", []byte("x\n"))
	if strbuf.CodeOf(err) != strbuf.CodeAlloc {
		t.Fatalf("error = %v, want alloc code", err)
	}
}

func TestTrimFilesWrite(t *testing.T) {
	dir := t.TempDir()
	files := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	inputs := []string{"  a  \n", "\tb\r\n c \n"}
	for i, f := range files {
		if err := os.WriteFile(f, []byte(inputs[i]), 0o640); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var calls atomic.Int32
	sess := testSession(func(c *config.Config) { c.Heap.Allocator = config.AllocatorMmap })
	results, err := trimFiles(context.Background(), sess, files, 2, true, func() { calls.Add(1) })
	if err != nil {
		t.Fatalf("trimFiles: %v", err)
	}
	want := []string{"a\n", "b\nc\n"}
	for i, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if string(data) != want[i] || string(results[i]) != want[i] {
			t.Fatalf("%s = %q (result %q), want %q", f, data, results[i], want[i])
		}
		info, err := os.Stat(f)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o640 {
			t.Fatalf("%s mode = %v, want 0640", f, info.Mode().Perm())
		}
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("done called %d times, want 2", n)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "tmp-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestTrimFilesMissingFile(t *testing.T) {
	sess := testSession(nil)
	_, err := trimFiles(context.Background(), sess, []string{filepath.Join(t.TempDir(), "nope")}, 1, false, func() {})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want not exist", err)
	}
}

func TestWriteFileAtomicFailureKeepsOriginal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.txt")
	if err := os.WriteFile(path, []byte("original"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	boom := errors.New("boom")
	err := writeFileAtomic(path, 0o600, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Fatalf("file = %q, want original", data)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "tmp-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestOps(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		args []string
		want string
	}{
		{"upper", upperCmd, []string{"Hello, World"}, "HELLO, WORLD\n"},
		{"lower", lowerCmd, []string{"Hello, World"}, "hello, world\n"},
		{"find", findCmd, []string{"Hello World", "W"}, "6\n"},
		{"find missing", findCmd, []string{"Hello", "z"}, "-1\n"},
		{"cmp", cmpCmd, []string{"abc", "abd"}, "-1\n"},
		{"cmp prefix", cmpCmd, []string{"ab", "abc"}, "0\n"},
		{"view", viewCmd, []string{"Hello World"}, "Hello World\n"},
		{"cat", catCmd, []string{"Hello", " ", "World"}, "Hello World\n"},
		{"printf", printfCmd, []string{"%s has %d items", "cart", "3"}, "cart has 3 items\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCmd(t, tt.cmd, tt.args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if got != tt.want {
				t.Fatalf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestViewFlags(t *testing.T) {
	viewBase, viewLen = 3, 6
	t.Cleanup(func() { viewBase, viewLen = 0, -1 })
	got, err := runCmd(t, viewCmd, "Hello World")
	if err != nil || got != "lo Wor\n" {
		t.Fatalf("view = %q, %v", got, err)
	}

	viewBase, viewLen = 8, 6
	_, err = runCmd(t, viewCmd, "Hello World")
	if !errors.Is(err, strbuf.ErrInvalidRange) {
		t.Fatalf("error = %v, want invalid range", err)
	}
}

func TestImportCommand(t *testing.T) {
	importMax = 15
	t.Cleanup(func() { importMax = 0 })

	got, err := runCmd(t, importCmd, "Hello Beautiful")
	if err != nil || got != "Hello Beautiful\n" {
		t.Fatalf("import = %q, %v", got, err)
	}
	_, err = runCmd(t, importCmd, "Hello Beautiful World!")
	if strbuf.CodeOf(err) != strbuf.CodeSafety {
		t.Fatalf("error = %v, want safety code", err)
	}
	if msg := formatError(err); !strings.HasSuffix(msg, "[code -97]") {
		t.Fatalf("formatError = %q", msg)
	}
}

func TestFindRejectsMultiByteChar(t *testing.T) {
	if _, err := runCmd(t, findCmd, "Hello", "ll"); err == nil {
		t.Fatalf("expected error for two-byte CHAR")
	}
}

func TestDumpInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.msgpack")
	dumpOut, dumpBase, dumpLen = path, 6, 5
	t.Cleanup(func() { dumpOut, dumpBase, dumpLen = "", 0, -1 })

	if _, err := runCmd(t, dumpCmd, "Hello World"); err != nil {
		t.Fatalf("dump: %v", err)
	}
	got, err := runCmd(t, inspectCmd, path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"kind", "view", "base", "6", `"World"`, "owned len=5 cap=32"} {
		if !strings.Contains(got, want) {
			t.Fatalf("inspect output lacks %q:\n%s", want, got)
		}
	}
}

func TestRenderSnapshotTruncates(t *testing.T) {
	snap := strbuf.Snapshot{Kind: strbuf.Owned, Length: 40, Capacity: 64, Data: bytes.Repeat([]byte("x"), 40)}
	h := strbuf.NewHeap()
	r, err := h.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	defer r.Destroy()
	out := renderSnapshot(snap, r, false, 30)
	if !strings.Contains(out, "…") {
		t.Fatalf("long data not truncated:\n%s", out)
	}
}

func TestPrintfArgs(t *testing.T) {
	got := printfArgs([]string{"12", "-3", "x", "1.5"})
	want := []any{int64(12), int64(-3), "x", "1.5"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestFormatError(t *testing.T) {
	if got := formatError(errors.New("plain")); got != "strbuf: plain" {
		t.Fatalf("formatError = %q", got)
	}
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderVersionJSON(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `"tool": "strbuf"`) {
		t.Fatalf("json = %s", buf.String())
	}
}
