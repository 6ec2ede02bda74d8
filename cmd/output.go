package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/matheuskafuri/devfeed/internal/annotate"
	"github.com/matheuskafuri/devfeed/internal/article"
)

const maxTitleLen = 70

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorRed     = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F5F"}

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	savedStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	upvoteStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	downvoteStyle = lipgloss.NewStyle().Foreground(colorRed)
	dimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	warnStyle     = lipgloss.NewStyle().Foreground(colorAccent)
)

const (
	savedMark    = "★"
	upvoteMark   = "▲"
	downvoteMark = "▼"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

// marks returns the row markers for an article: saved, then the vote.
func marks(store *annotate.Store, id article.ID) string {
	var b strings.Builder
	if store.IsBookmarked(id) {
		b.WriteString(savedStyle.Render(savedMark))
	}
	if kind, ok := store.Vote(id); ok {
		b.WriteString(voteMark(kind))
	}
	return b.String()
}

func voteMark(kind article.VoteKind) string {
	if kind == article.Downvote {
		return downvoteStyle.Render(downvoteMark)
	}
	return upvoteStyle.Render(upvoteMark)
}

func score(a article.Article) string {
	if !a.Votable() {
		return dimStyle.Render("-")
	}
	return fmt.Sprintf("%s%d %s%d", upvoteMark, a.Upvotes, downvoteMark, a.Downvotes)
}

func renderArticles(w io.Writer, articles []article.Article, store *annotate.Store) error {
	if len(articles) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No articles found."))
		return nil
	}

	rows := make([][]string, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, []string{
			marks(store, a.ID),
			a.ID.String(),
			truncateStr(a.Title, maxTitleLen),
			strings.Join(a.Tags, ","),
			score(a),
			fmt.Sprint(a.Views),
			a.Source,
		})
	}

	table := newTable(w)
	table.Header([]string{"", "ID", "Title", "Tags", "Score", "Views", "Source"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func renderPairs(w io.Writer, title string, pairs [][]string) error {
	fmt.Fprintln(w, headerStyle.Render(title))
	table := newTable(w)
	if err := table.Bulk(pairs); err != nil {
		return err
	}
	return table.Render()
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func formatDuration(d time.Duration) string {
	h := d.Hours()
	days := int(h / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(h))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
