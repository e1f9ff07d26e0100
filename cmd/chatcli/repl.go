package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"portfolio-backend/internal/client"
	"portfolio-backend/internal/models"
)

// view prints only what changed between two snapshots.
type view struct {
	mu        sync.Mutex
	out       io.Writer
	printed   int
	phase     client.Phase
	lastError string
}

func newView(out io.Writer) *view {
	return &view{out: out}
}

func (v *view) render(st client.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(st.Messages) < v.printed {
		v.printed = 0
		fmt.Fprintln(v.out, "── conversation cleared ──")
	}
	for _, m := range st.Messages[v.printed:] {
		if m.Sender == client.SenderAI {
			printMessage(v.out, m)
		}
	}
	v.printed = len(st.Messages)

	if st.Phase != v.phase {
		v.phase = st.Phase
		if st.Phase != client.PhaseIdle {
			fmt.Fprintf(v.out, "  … %s\n", st.Phase)
		}
	}
	if st.Error != "" && st.Error != v.lastError {
		fmt.Fprintf(v.out, "  ⚠ %s\n", st.Error)
	}
	v.lastError = st.Error
}

func printMessage(out io.Writer, m client.Message) {
	switch m.Kind {
	case models.ReplyTypeContactInfo:
		fmt.Fprintln(out, "ai> You can reach Kristopher here:")
		for _, c := range m.Contacts {
			fmt.Fprintf(out, "    %s: %s\n", c.Name, c.URL)
		}
	case models.ReplyTypeProjectList:
		fmt.Fprintln(out, "ai> Projects:")
		for _, p := range m.Projects {
			fmt.Fprintf(out, "    %s (%s): %s\n", p.Name, strings.Join(p.Stack, ", "), p.Description)
		}
	default:
		fmt.Fprintf(out, "ai> %s\n", m.Text)
	}
}

func readLoop(ctx context.Context, in io.Reader, session *client.Session, v *view) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			session.Skip()
			return nil
		case line, ok := <-lines:
			if !ok {
				session.Skip()
				return nil
			}
			if quit := dispatch(ctx, session, v, strings.TrimSpace(line)); quit {
				session.Skip()
				return nil
			}
		}
	}
}

// dispatch runs one input line. Flows run in the background so /skip can
// interrupt them.
func dispatch(ctx context.Context, session *client.Session, v *view, line string) bool {
	report := func(err error) {
		if errors.Is(err, client.ErrBusy) {
			fmt.Fprintln(v.out, "  (still answering, /skip to interrupt)")
		}
	}

	switch {
	case line == "":
	case line == "/quit" || line == "/exit":
		return true
	case line == "/skip":
		session.Skip()
	case line == "/clear":
		session.ClearAll()
	case line == "/about":
		go func() { report(session.About(ctx)) }()
	case line == "/projects":
		go func() { report(session.Projects(ctx)) }()
	case strings.HasPrefix(line, "/toggle"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/toggle")))
		if err != nil {
			fmt.Fprintln(v.out, "  usage: /toggle N")
			return false
		}
		session.Toggle(n)
	default:
		session.SetValue(line)
		go func() { report(session.Send(ctx, line)) }()
	}
	return false
}
