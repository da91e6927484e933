package notifier

import (
	"fmt"
	"io"
	"strings"

	"github.com/julianstephens/nudge/internal/constants"
)

// StdoutSender prints notifications instead of delivering them.
type StdoutSender struct {
	W io.Writer
}

func (s StdoutSender) Send(n Notification, actions []Action) error {
	line := fmt.Sprintf("[DryRun] %s %s (%s)", n.At.Format(constants.TimeFormat), n.Title, n.ID)
	if len(actions) > 0 {
		titles := make([]string, len(actions))
		for i, a := range actions {
			titles[i] = a.Title
		}
		line += " [" + strings.Join(titles, "/") + "]"
	}
	_, err := fmt.Fprintln(s.W, line)
	return err
}
