package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

const maxTitleWidth = 48

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func stateLabel(state model.State) string {
	switch state {
	case model.StateCompleted:
		return green(state.String())
	case model.StateFailed:
		return red(state.String())
	default:
		return yellow(state.String())
	}
}

func renderItems(w io.Writer, items []model.Item) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Title", "State", "Duration", "Output / Error"})
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	for i, item := range items {
		detail := item.OutputPath
		if item.State == model.StateFailed {
			detail = item.Error
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			truncate(item.GetDisplayTitle(), maxTitleWidth),
			stateLabel(item.State),
			item.Duration,
			detail,
		})
	}
	table.Render()
}

func renderCandidates(w io.Writer, candidates []model.Candidate) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Title", "Channel", "Duration", "Views", "Accessible", "Locator"})
	table.SetAutoWrapText(false)
	for i, c := range candidates {
		access := green("yes")
		if !c.Accessible {
			access = red("no")
			if c.AccessDetail != "" {
				access = red(c.AccessDetail)
			}
		}
		views := ""
		if c.ViewCount > 0 {
			views = strconv.FormatInt(c.ViewCount, 10)
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			truncate(c.Title, maxTitleWidth),
			c.Channel,
			c.Duration,
			views,
			access,
			c.Locator,
		})
	}
	table.Render()
}

func renderFormats(w io.Writer, formats []platform.FormatInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Ext", "Resolution", "FPS", "Size", "Video", "Audio"})
	table.SetAutoWrapText(false)
	for _, f := range formats {
		fps := ""
		if f.FPS > 0 {
			fps = strconv.FormatFloat(f.FPS, 'f', -1, 64)
		}
		table.Append([]string{
			bold(f.ID),
			f.Ext,
			f.Resolution,
			fps,
			formatSize(f.FileSize),
			f.VCodec,
			f.ACodec,
		})
	}
	table.Render()
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes <= 0 {
		return ""
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGT"[exp])
}

func renderSummary(w io.Writer, summary model.Summary) {
	fmt.Fprintf(w, "%s %s completed, %s failed of %d",
		bold("Done:"), green(summary.Completed), red(summary.Failed), summary.Total)
	if summary.Stopped {
		fmt.Fprintf(w, " (stopped, %s left pending)", yellow(summary.Remaining))
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
