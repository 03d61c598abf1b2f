package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/papapumpkin/ddk/internal/journal"
)

// FormatEvent renders a journal event as one human-readable line.
func FormatEvent(evt journal.Event) string {
	st := newStyles()
	parts := []string{st.dim.Render("[" + evt.Timestamp.Local().Format(time.DateTime) + "]")}

	switch evt.Kind {
	case journal.KindChangeSetApplied:
		parts = append(parts, st.ok.Render(evt.Kind))
	case journal.KindChangeSetFailed:
		parts = append(parts, st.bad.Render(evt.Kind))
	default:
		parts = append(parts, st.accent.Render(evt.Kind))
	}
	if evt.Changes > 0 {
		parts = append(parts, fmt.Sprintf("changes=%d", evt.Changes))
	}
	if len(evt.Types) > 0 {
		parts = append(parts, "types="+strings.Join(evt.Types, ","))
	}
	if evt.Failed != nil {
		parts = append(parts, fmt.Sprintf("failed=%d", *evt.Failed))
	}
	if evt.Error != "" {
		parts = append(parts, fmt.Sprintf("error=%q", evt.Error))
	}
	if evt.Data != nil {
		parts = append(parts, formatData(evt.Data))
	}
	return strings.Join(parts, " ")
}

// formatData renders a map as key=value pairs sorted by key, and anything
// else as JSON.
func formatData(data any) string {
	m, ok := data.(map[string]any)
	if !ok {
		raw, _ := json.Marshal(data)
		return string(raw)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}
