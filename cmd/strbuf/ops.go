package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"strbuf/internal/strbuf"
)

var (
	importMax int
	viewBase  int
	viewLen   int
	cmpEqual  bool
)

func init() {
	importCmd.Flags().IntVar(&importMax, "max", 0, "largest accepted input length (required)")
	_ = importCmd.MarkFlagRequired("max")

	viewCmd.Flags().IntVar(&viewBase, "base", 0, "first element of the view")
	viewCmd.Flags().IntVar(&viewLen, "len", -1, "number of elements (default: up to the end)")

	cmpCmd.Flags().BoolVar(&cmpEqual, "equal", false, "print true/false instead of the difference")
}

var upperCmd = &cobra.Command{
	Use:   "upper TEXT|-",
	Short: "Map a-z to A-Z",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transform(cmd, args[0], (*strbuf.String).ToUpper)
	},
}

var lowerCmd = &cobra.Command{
	Use:   "lower TEXT|-",
	Short: "Map A-Z to a-z",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transform(cmd, args[0], (*strbuf.String).ToLower)
	},
}

// transform copies the input into an owned string, applies op in place and
// prints the result.
func transform(cmd *cobra.Command, arg string, op func(*strbuf.String) (int, error)) error {
	text, err := readInput(cmd, arg)
	if err != nil {
		return err
	}
	return currentSession().withHeap(func(h *strbuf.Heap) error {
		s, err := h.FromText(text)
		if err != nil {
			return err
		}
		defer s.Destroy()
		if _, err := op(s); err != nil {
			return err
		}
		return printString(cmd.OutOrStdout(), s)
	})
}

var findCmd = &cobra.Command{
	Use:   "find TEXT CHAR",
	Short: "Print the position of the first CHAR in TEXT, or -1",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args[1]) != 1 {
			return fmt.Errorf("CHAR must be a single byte, got %q", args[1])
		}
		return currentSession().withHeap(func(h *strbuf.Heap) error {
			s, err := h.ConstString(args[0])
			if err != nil {
				return err
			}
			defer s.Destroy()
			i, err := s.IndexByte(args[1][0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), i)
			return err
		})
	},
}

var cmpCmd = &cobra.Command{
	Use:   "cmp A B",
	Short: "Compare A against B element by element",
	Long: `cmp prints the difference of the first mismatching pair of elements, or 0.
Only A's length is scanned, so a prefix of B compares as 0; use --equal for exact equality.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return currentSession().withHeap(func(h *strbuf.Heap) error {
			a, err := h.ConstString(args[0])
			if err != nil {
				return err
			}
			defer a.Destroy()
			b, err := h.ConstString(args[1])
			if err != nil {
				return err
			}
			defer b.Destroy()
			var result any
			if cmpEqual {
				result, err = strbuf.Equal(a, b)
			} else {
				result, err = strbuf.Compare(a, b)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
			return err
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import --max N TEXT|-",
	Short: "Copy untrusted input only if it holds at most N elements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return currentSession().withHeap(func(h *strbuf.Heap) error {
			s, err := h.New(0)
			if err != nil {
				return err
			}
			defer s.Destroy()
			if _, err := s.Import(text, importMax); err != nil {
				return err
			}
			return printString(cmd.OutOrStdout(), s)
		})
	},
}

var viewCmd = &cobra.Command{
	Use:   "view [--base B] [--len N] TEXT",
	Short: "Print a window of TEXT without copying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return currentSession().withHeap(func(h *strbuf.Heap) error {
			src, err := h.ConstString(args[0])
			if err != nil {
				return err
			}
			defer src.Destroy()
			n := viewLen
			if n < 0 {
				n = src.Len() - viewBase
			}
			v, err := src.View(viewBase, n)
			if err != nil {
				return err
			}
			defer v.Destroy()
			return printString(cmd.OutOrStdout(), v)
		})
	},
}

var catCmd = &cobra.Command{
	Use:   "cat TEXT...",
	Short: "Concatenate the arguments into one owned string",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return currentSession().withHeap(func(h *strbuf.Heap) error {
			s, err := h.New(0)
			if err != nil {
				return err
			}
			defer s.Destroy()
			for _, arg := range args {
				if _, err := s.CatString(arg); err != nil {
					return err
				}
			}
			return printString(cmd.OutOrStdout(), s)
		})
	},
}

var printfCmd = &cobra.Command{
	Use:   "printf FORMAT [ARG...]",
	Short: "Format the arguments into an owned string",
	Long: `printf formats like Go's fmt package. Arguments that parse as integers are
passed as int64, everything else as string.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return currentSession().withHeap(func(h *strbuf.Heap) error {
			s, err := h.New(0)
			if err != nil {
				return err
			}
			defer s.Destroy()
			if _, err := s.Printf(args[0], printfArgs(args[1:])...); err != nil {
				return err
			}
			return printString(cmd.OutOrStdout(), s)
		})
	},
}

func printfArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if n, err := strconv.ParseInt(a, 10, 64); err == nil {
			out[i] = n
			continue
		}
		out[i] = a
	}
	return out
}

// readInput returns arg itself, or all of stdin when arg is "-".
func readInput(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	in := cmd.InOrStdin()
	if in == nil {
		in = os.Stdin
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

func printString(w io.Writer, s *strbuf.String) error {
	_, err := fmt.Fprintln(w, s.String())
	return err
}
