package services

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/domain"
)

const (
	// ListTimeLayout is the display layout for scheduled times.
	ListTimeLayout = "2006/01/02 15:04"
	// PreviewRunes caps the body preview length.
	PreviewRunes = 50
	ellipsis     = "..."
)

// ListEntry is one rendered line group of the scheduled list. Body already
// includes the ellipsis when Truncated. Info entries carry only Text (the
// "nothing scheduled" notice).
type ListEntry struct {
	ID        string
	When      string
	Mention   string
	Body      string
	Truncated bool
	Unknown   bool
	Info      bool
	Text      string
}

// ListFormatter renders scheduled-message summaries for display.
type ListFormatter struct {
	loc  *time.Location
	msgs config.Messages
}

// NewListFormatter builds a formatter that shows times in cfg.Location.
func NewListFormatter(cfg *config.Config) *ListFormatter {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &ListFormatter{loc: loc, msgs: cfg.Messages}
}

// Format returns one entry per summary, ascending by fire time, or a single
// informational entry when there is nothing scheduled. Malformed text never
// fails; it yields the "content unknown" body.
func (f *ListFormatter) Format(items []domain.ScheduledMessageSummary) []ListEntry {
	if len(items) == 0 {
		return []ListEntry{{Info: true, Text: f.msgs.ListEmpty}}
	}
	sorted := SortByPostAt(items)

	out := make([]ListEntry, 0, len(sorted))
	for _, it := range sorted {
		e := ListEntry{
			ID:   it.ID,
			When: it.PostAtTime().In(f.loc).Format(ListTimeLayout),
		}
		mention, body, ok := DecodeText(it.RawText)
		if ok {
			e.Mention = mention
			e.Body, e.Truncated = preview(body, PreviewRunes)
		} else {
			e.Unknown = true
			e.Body = f.msgs.ContentUnknown
		}
		e.Text = f.render(e)
		out = append(out, e)
	}
	return out
}

func (f *ListFormatter) render(e ListEntry) string {
	var b strings.Builder
	if e.Mention != "" {
		b.WriteString(f.msgs.ListMentionPrefix + e.Mention + "\n")
	}
	b.WriteString(f.msgs.ListTimePrefix + e.When + "\n")
	b.WriteString(f.msgs.ListBodyPrefix + "\n" + e.Body)
	return b.String()
}

// SortByPostAt returns a copy of items ordered ascending by PostAt. Ties keep
// their input order.
func SortByPostAt(items []domain.ScheduledMessageSummary) []domain.ScheduledMessageSummary {
	out := make([]domain.ScheduledMessageSummary, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PostAt < out[j].PostAt })
	return out
}

// preview NFC-normalizes s and cuts it to max runes, appending an ellipsis
// when something was cut.
func preview(s string, max int) (string, bool) {
	s = norm.NFC.String(s)
	r := []rune(s)
	if len(r) <= max {
		return s, false
	}
	return string(r[:max]) + ellipsis, true
}
