package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"strbuf/internal/strbuf"
)

var (
	dumpOut  string
	dumpBase int
	dumpLen  int
)

func init() {
	dumpCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "snapshot file to write (required)")
	dumpCmd.Flags().IntVar(&dumpBase, "base", 0, "with --len: snapshot a view starting here")
	dumpCmd.Flags().IntVar(&dumpLen, "len", -1, "snapshot a view of this many elements instead of the owned string")
	_ = dumpCmd.MarkFlagRequired("out")
}

var dumpCmd = &cobra.Command{
	Use:   "dump --out FILE TEXT|-",
	Short: "Write a string snapshot (msgpack) to FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		sess := currentSession()
		return sess.withHeap(func(h *strbuf.Heap) error {
			s, err := h.FromText(text)
			if err != nil {
				return err
			}
			defer s.Destroy()

			target := s
			if dumpLen >= 0 {
				v, err := s.View(dumpBase, dumpLen)
				if err != nil {
					return err
				}
				defer v.Destroy()
				target = v
			}
			snap, err := target.Snapshot()
			if err != nil {
				return err
			}
			return sess.phase("write snapshot", func() error {
				return writeFileAtomic(dumpOut, 0o644, func(w io.Writer) error {
					return strbuf.WriteSnapshot(w, snap)
				})
			})
		})
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show a snapshot and restore it into an owned string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		snap, err := strbuf.ReadSnapshot(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		sess := currentSession()
		return sess.withHeap(func(h *strbuf.Heap) error {
			r, err := h.Restore(snap)
			if err != nil {
				return err
			}
			defer r.Destroy()
			_, err = io.WriteString(cmd.OutOrStdout(), renderSnapshot(snap, r, sess.color, outputWidth()))
			return err
		})
	},
}

type inspectStyles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	data  lipgloss.Style
}

func newInspectStyles(enabled bool) inspectStyles {
	if !enabled {
		plain := lipgloss.NewStyle()
		return inspectStyles{title: plain, label: plain, value: plain, data: plain}
	}
	return inspectStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		value: lipgloss.NewStyle().Bold(true),
		data:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// renderSnapshot lays out the snapshot fields and the restored string.
func renderSnapshot(snap strbuf.Snapshot, restored *strbuf.String, colored bool, width int) string {
	st := newInspectStyles(colored)
	rows := [][2]string{
		{"schema", strconv.Itoa(int(snap.Schema))},
		{"kind", snap.Kind.String()},
		{"length", strconv.Itoa(snap.Length)},
		{"capacity", strconv.Itoa(snap.Capacity)},
	}
	if snap.Kind == strbuf.View {
		rows = append(rows, [2]string{"base", strconv.Itoa(snap.Base)})
	}
	rows = append(rows,
		[2]string{"restored", fmt.Sprintf("%s len=%d cap=%d", restored.Kind(), restored.Len(), restored.Cap())},
		[2]string{"storage", humanize.IBytes(uint64(restored.Cap()))},
	)

	var b strings.Builder
	b.WriteString(st.title.Render("snapshot"))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(st.label.Render(fmt.Sprintf("  %-9s", row[0])))
		b.WriteString(st.value.Render(row[1]))
		b.WriteByte('\n')
	}
	preview := strconv.Quote(string(snap.Data))
	if width > 13 {
		preview = runewidth.Truncate(preview, width-12, "…")
	}
	b.WriteString(st.label.Render(fmt.Sprintf("  %-9s", "data")))
	b.WriteString(st.data.Render(preview))
	b.WriteByte('\n')
	return b.String()
}

// outputWidth is the terminal width of stdout, or 0 when it is not a terminal.
func outputWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
