package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/rcliao/synapse/internal/chat"
	"github.com/rcliao/synapse/internal/model"
)

var (
	idColor    = color.New(color.FgHiBlack).SprintFunc()
	titleColor = color.New(color.Bold).SprintFunc()
	userColor  = color.New(color.FgGreen, color.Bold).SprintFunc()
	botColor   = color.New(color.FgCyan, color.Bold).SprintFunc()
	errColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func statusColor(s model.MemoryStatus) string {
	switch s {
	case model.StatusReady:
		return color.GreenString(string(s))
	case model.StatusFailed:
		return color.RedString(string(s))
	}
	return color.YellowString(string(s))
}

func ago(t model.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t.Time)
}

func writeMemories(w io.Writer, ms []model.Memory) {
	if len(ms) == 0 {
		fmt.Fprintln(w, "No memories.")
		return
	}
	for _, m := range ms {
		fmt.Fprintf(w, "%s  %-8s %-10s %s  %s\n",
			idColor(m.ID), m.Type, statusColor(m.Status), titleColor(m.DisplayTitle()), ago(m.CreatedAt))
	}
}

func writeMemory(w io.Writer, m *model.Memory, uploads []model.Upload) {
	fmt.Fprintf(w, "%s\n", titleColor(m.DisplayTitle()))
	fmt.Fprintf(w, "  id:      %s\n", m.ID)
	fmt.Fprintf(w, "  type:    %s\n", m.Type)
	fmt.Fprintf(w, "  status:  %s\n", statusColor(m.Status))
	if m.SourceURL != nil {
		fmt.Fprintf(w, "  source:  %s\n", *m.SourceURL)
	}
	if len(m.Tags) > 0 {
		fmt.Fprintf(w, "  tags:    %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Fprintf(w, "  created: %s\n", ago(m.CreatedAt))
	fmt.Fprintf(w, "  updated: %s\n", ago(m.UpdatedAt))
	if m.Summary != nil && *m.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", *m.Summary)
	}
	if len(uploads) > 0 {
		fmt.Fprintln(w)
		writeUploads(w, uploads)
	}
}

func writeUploads(w io.Writer, ups []model.Upload) {
	if len(ups) == 0 {
		fmt.Fprintln(w, "No uploads.")
		return
	}
	for _, u := range ups {
		mime := u.FileType
		if u.MimeType != nil {
			mime = *u.MimeType
		}
		fmt.Fprintf(w, "%s  %-9s %-24s %s\n", idColor(u.ID), humanize.Bytes(uint64(max(u.FileSize, 0))), mime, u.FileURL)
	}
}

func writeResults(w io.Writer, rs []model.SearchResult) {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	for i, r := range rs {
		title := r.Title
		if title == "" {
			title = "(untitled " + string(r.ContentType) + ")"
		}
		fmt.Fprintf(w, "%2d. %s  %s  %.3f\n", i+1, titleColor(title), idColor(r.MemoryID), r.Score())
		if r.Summary != "" {
			fmt.Fprintf(w, "    %s\n", truncate(r.Summary, 160))
		}
		for _, m := range r.Matches {
			fmt.Fprintf(w, "    > %s\n", truncate(m.Chunk, 160))
		}
	}
}

func writeChats(w io.Writer, chats []model.Chat) {
	if len(chats) == 0 {
		fmt.Fprintln(w, "No chats.")
		return
	}
	for _, c := range chats {
		fmt.Fprintf(w, "%s  %s  %s\n", idColor(c.ID), titleColor(c.Title), ago(c.UpdatedAt))
	}
}

func writeMessages(w io.Writer, msgs []model.ChatMessage) {
	for _, m := range msgs {
		label := botColor("assistant")
		switch {
		case m.Role == model.RoleUser:
			label = userColor("you")
		case strings.HasPrefix(m.ID, chat.TempErrorPrefix):
			label = errColor("error")
		}
		fmt.Fprintf(w, "%s %s\n%s\n\n", label, idColor(m.CreatedAt.Local().Format(time.Kitchen)), m.Content)
	}
}

func writeUser(w io.Writer, u *model.User) {
	name := ""
	if u.Name != nil && *u.Name != "" {
		name = " (" + *u.Name + ")"
	}
	fmt.Fprintf(w, "%s%s  %s\n", u.Email, name, idColor(u.ID))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
