package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qualitylink/qldash/internal/search"
)

// Key codes the picker reacts to
const (
	keyCtrlC     = 3
	keyCtrlD     = 4
	keyBackspace = 8
	keyLF        = 10
	keyCR        = 13
	keyEscape    = 27
	keyDelete    = 127
)

type pickAction int

const (
	pickContinue pickAction = iota
	pickSelect
	pickCancel
)

// picker is the line editor of the interactive provider search
type picker struct {
	search *search.Searcher
	input  []rune
	cursor int
}

func newPicker(s *search.Searcher) *picker {
	return &picker{search: s}
}

// handleKey applies one read from the terminal
func (p *picker) handleKey(b []byte) pickAction {
	if len(b) == 0 {
		return pickContinue
	}
	switch b[0] {
	case keyCtrlC, keyCtrlD:
		return pickCancel
	case keyEscape:
		if len(b) == 1 {
			if p.search.State().Open {
				p.search.Dismiss()
				return pickContinue
			}
			return pickCancel
		}
		if len(b) >= 3 && b[1] == '[' {
			p.move(b[2])
		}
		return pickContinue
	case keyCR, keyLF:
		st := p.search.State()
		if !st.Open || p.cursor >= len(st.Results) {
			return pickContinue
		}
		p.search.Select(st.Results[p.cursor])
		return pickSelect
	case keyBackspace, keyDelete:
		if len(p.input) > 0 {
			p.input = p.input[:len(p.input)-1]
			p.changed()
		}
		return pickContinue
	}

	typed := false
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			continue
		}
		p.input = append(p.input, r)
		typed = true
	}
	if typed {
		p.changed()
	}
	return pickContinue
}

func (p *picker) changed() {
	p.cursor = 0
	p.search.Input(string(p.input))
}

func (p *picker) move(arrow byte) {
	n := len(p.search.State().Results)
	switch arrow {
	case 'A':
		if p.cursor > 0 {
			p.cursor--
		}
	case 'B':
		if p.cursor < n-1 {
			p.cursor++
		}
	}
}

// render redraws the prompt and the suggestion list below it. The terminal
// cursor is left at the end of the prompt.
func (p *picker) render(w io.Writer, st search.State) {
	var b strings.Builder
	b.WriteString("\r\033[J")
	prompt := "Provider: " + string(p.input)
	b.WriteString(prompt)

	lines := 0
	status := ""
	switch {
	case st.Loading:
		status = "Searching..."
	case st.Error != "":
		status = st.Error
	case st.Open && len(st.Results) == 0:
		status = "No providers found"
	}
	if status != "" {
		b.WriteString("\r\n  " + status)
		lines++
	}
	if st.Open {
		for i, provider := range st.Results {
			marker := "  "
			if i == p.cursor {
				marker = "> "
			}
			line := marker + provider.ProviderName
			if provider.DeqarID != "" {
				line += " (" + provider.DeqarID + ")"
			}
			b.WriteString("\r\n" + line)
			lines++
		}
	}
	if lines > 0 {
		fmt.Fprintf(&b, "\033[%dA\r\033[%dC", lines, utf8.RuneCountInString(prompt))
	}
	fmt.Fprint(w, b.String())
}

// GetPickCmd returns the interactive picker command
func GetPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Search providers interactively and open the selected dashboard",
		RunE:  runPick,
	}
}

func runPick(cmd *cobra.Command, _ []string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("pick needs an interactive terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("error switching terminal to raw mode: %w", err)
	}
	restore := func() { _ = term.Restore(fd, oldState) }
	defer restore()

	ctx := cmd.Context()
	changes := make(chan search.State, 16)
	s := search.New(ctx, apiClient, cfg.SearchOptions(), func(st search.State) {
		select {
		case changes <- st:
		default:
		}
	})
	defer s.Close()

	keys := make(chan []byte)
	go readKeys(os.Stdin, keys)

	out := cmd.OutOrStdout()
	p := newPicker(s)
	p.render(out, s.State())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-changes:
			p.render(out, st)
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			switch p.handleKey(k) {
			case pickCancel:
				fmt.Fprint(out, "\r\033[J")
				return nil
			case pickSelect:
				fmt.Fprint(out, "\r\033[J")
				restore()
				providerUUID, _ := s.Selected()
				return showDashboard(cmd, providerUUID)
			}
			p.render(out, s.State())
		}
	}
}

func readKeys(r io.Reader, keys chan<- []byte) {
	defer close(keys)
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			keys <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

func showDashboard(cmd *cobra.Command, providerUUID string) error {
	toasts := startToasts(cmd)
	defer toasts.Close()

	d, err := loadDashboard(cmd, toasts, providerUUID)
	if err != nil {
		return err
	}
	defer d.Close()

	view, err := d.View()
	if err != nil {
		return err
	}
	return printJSON(cmd, view)
}
