package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"strbuf/internal/strbuf"
)

var (
	trimWrite    bool
	trimJobs     int
	trimProgress bool
)

func init() {
	trimCmd.Flags().BoolVarP(&trimWrite, "write", "w", false, "rewrite files in place instead of printing")
	trimCmd.Flags().IntVarP(&trimJobs, "jobs", "j", 0, "files processed at once (default GOMAXPROCS)")
	trimCmd.Flags().BoolVar(&trimProgress, "progress", false, "show a progress bar on stderr while trimming files")
}

var trimCmd = &cobra.Command{
	Use:   "trim [FILE...]",
	Short: "Trim leading and trailing control characters and spaces from every line",
	Long: `trim removes elements <= ' ' from both ends of every line. With no files it
reads stdin. Files are trimmed concurrently, each with its own heap; output keeps
argument order. A line ends at its first NUL element.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := currentSession()
		if len(args) == 0 {
			if trimWrite {
				return fmt.Errorf("--write needs at least one file")
			}
			var out []byte
			err := sess.phase("trim stdin", func() error {
				in, err := readInput(cmd, "-")
				if err != nil {
					return err
				}
				out, err = trimLines(sess, "<stdin>", in)
				return err
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}

		var results [][]byte
		err := sess.phase("trim files", func() error {
			var err error
			results, err = trimFiles(cmd.Context(), sess, args, trimJobs, trimWrite, newTrimProgress(cmd, len(args)))
			return err
		})
		if err != nil {
			return err
		}
		if trimWrite {
			return nil
		}
		out := cmd.OutOrStdout()
		for _, r := range results {
			if _, err := out.Write(r); err != nil {
				return err
			}
		}
		return nil
	},
}

// trimFiles trims each file on its own goroutine and heap. Results are
// indexed like files; with write set they are also written back in place.
func trimFiles(ctx context.Context, sess *session, files []string, jobs int, write bool, done func()) ([][]byte, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([][]byte, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			in, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out, err := trimLines(sess, path, in)
			if err != nil {
				return err
			}
			if write {
				err = writeFileAtomic(path, info.Mode().Perm(), func(w io.Writer) error {
					_, werr := w.Write(out)
					return werr
				})
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			results[i] = out
			done()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// trimLines trims every line of in through one owned string. Lines longer
// than the heap maximum are rejected with a safety error.
func trimLines(sess *session, name string, in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))
	err := sess.withHeap(func(h *strbuf.Heap) error {
		s, err := h.New(0)
		if err != nil {
			return err
		}
		defer s.Destroy()

		lineNo := 0
		for len(in) > 0 {
			lineNo++
			line, rest, found := bytes.Cut(in, []byte{'\n'})
			in = rest
			if _, err := s.Import(line, h.MaxLength()); err != nil {
				return fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			if _, err := s.Trim(); err != nil {
				return fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			out = append(out, s.Bytes()...)
			if found {
				out = append(out, '\n')
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// newTrimProgress returns the per-file completion hook. It draws a bar on
// stderr when --progress is set and stderr is a terminal.
func newTrimProgress(cmd *cobra.Command, total int) func() {
	if !trimProgress || !isTerminal(os.Stderr) {
		return func() {}
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	var (
		mu       sync.Mutex
		finished int
	)
	w := cmd.ErrOrStderr()
	return func() {
		mu.Lock()
		defer mu.Unlock()
		finished++
		n := finished
		line := fmt.Sprintf("\r%s %d/%d", bar.ViewAs(float64(n)/float64(total)), n, total)
		if n == total {
			line += "\n"
		}
		_, _ = io.WriteString(w, line)
	}
}
