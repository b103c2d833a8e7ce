package limitfile

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/BTBurke/limits/pkg/limit"
	"github.com/BTBurke/limits/pkg/state"
)

// Marshal renders checkers in limit file form.  States sharing identical bounds
// are listed under a single bounds line, blocks are separated by a page break
// line and the text ends with a newline.
func Marshal(checkers []*limit.Checker) []byte {
	var b bytes.Buffer
	for i, c := range checkers {
		if i > 0 {
			b.WriteString("\n\f\n")
		}
		writeBlock(&b, c)
	}
	b.WriteByte('\n')
	return b.Bytes()
}

// Format writes Marshal(checkers) to w
func Format(w io.Writer, checkers []*limit.Checker) error {
	if _, err := w.Write(Marshal(checkers)); err != nil {
		return fmt.Errorf("write limit text: %w", err)
	}
	return nil
}

func writeBlock(b *bytes.Buffer, c *limit.Checker) {
	p := c.Param()
	fmt.Fprintf(b, "[%s] [%s] [%s]", p.Name, p.Unit, enableText(c.Enabled()))
	for _, g := range c.Table().Groups() {
		b.WriteByte('\n')
		b.WriteString(BoundsLine(g.Bounds))
		for _, s := range g.States {
			b.WriteByte('\n')
			b.WriteString(ConditionLine(s))
		}
	}
}

// BoundsLine formats the bounds line of a group
func BoundsLine(bd limit.Bounds) string {
	return fmt.Sprintf("Caution:(%s, %s)  Action:(%s, %s)", bd.CautionLow, bd.CautionHigh, bd.ActionLow, bd.ActionHigh)
}

// ConditionLine formats the condition line of one state
func ConditionLine(s state.State) string {
	var line string
	if s.Variant.HasFrame() {
		line = fmt.Sprintf("Mode:%-3s  TWT:%-3s  TWTA:%-3s  Frame:%-3s", s.Mode, s.TWT, s.TWTA, s.Frame)
	} else {
		line = fmt.Sprintf("Mode:%-3s  TWT:%-3s  TWTA:%-3s", s.Mode, s.TWT, s.TWTA)
	}
	return strings.TrimRight(line, " ")
}
