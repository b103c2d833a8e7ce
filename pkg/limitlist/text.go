package limitlist

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/BTBurke/limits/pkg/limit"
	"github.com/BTBurke/limits/pkg/limitfile"
)

// RegenerateText renders the checkers in limit file form
func (l *List) RegenerateText() []byte {
	return limitfile.Marshal(l.checkers)
}

// WriteLimitText replaces the backing limit file with the regenerated text and
// reads it back to verify that it loads.  The file is open only while it is
// being written and again while it is being verified.
func (l *List) WriteLimitText() error {
	if err := l.write(l.RegenerateText()); err != nil {
		return err
	}
	if _, err := l.read(); err != nil {
		return fmt.Errorf("verify rewritten limits: %w", err)
	}
	l.logger.Debug().Str("path", l.path).Int("checkers", len(l.checkers)).Msg("rewrote limits")
	return nil
}

func (l *List) write(text []byte) (err error) {
	f, err := os.Create(l.path)
	if err != nil {
		return FileError{Op: "write", Path: l.path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = WriteError{Path: l.path, Err: cerr}
		}
	}()
	if _, err := f.Write(text); err != nil {
		return WriteError{Path: l.path, Err: err}
	}
	return nil
}

// Summaries returns the run summary of every checker in file order
func (l *List) Summaries() []limit.Summary {
	out := make([]limit.Summary, len(l.checkers))
	for i, c := range l.checkers {
		out[i] = c.Summary()
	}
	return out
}

// FinalReport writes a table of every parameter's worst exceedance in the pass
func (l *List) FinalReport(w io.Writer) error {
	fmt.Fprintf(w, "Limits %s (%s telemetry): %d frames checked, %d failed, worst status %s\n\n",
		l.path, l.source, l.frames, l.failures, l.worst)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER\tUNIT\tCHECKED\tEXCEEDANCES\tWORST\tEXTREME\tRECORD")
	for _, s := range l.Summaries() {
		if !s.Enabled {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\tdisabled\t-\t-\n", s.Param, s.Unit)
			continue
		}
		if s.Exceedances == 0 {
			fmt.Fprintf(tw, "%s\t%s\t%d\t0\t%s\t-\t-\n", s.Param, s.Unit, s.Checked, limit.OK)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%d\n", s.Param, s.Unit, s.Checked, s.Exceedances, s.Worst, s.Extreme, s.Record)
	}
	return tw.Flush()
}
