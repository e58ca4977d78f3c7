package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
	"github.com/chenhm/gitlab-ci-monitor/internal/feed"
	"github.com/chenhm/gitlab-ci-monitor/internal/layout"
	"github.com/chenhm/gitlab-ci-monitor/internal/view"
)

var buildVersion = "dev"

var (
	nameColor    = color.New(color.FgYellow, color.Bold)
	statusColor  = color.New(color.FgCyan)
	commitColor  = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	runningColor = color.New(color.FgGreen)
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "snapshot":
		err = commandSnapshot(args)
	case "version", "--version", "-v":
		fmt.Println(strings.TrimSpace(buildVersion))
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandSnapshot(args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	feedURL := fs.String("feed", "ws://localhost:4000/feed", "Feed websocket URL")
	topic := fs.String("topic", "projects", "Channel topic to join")
	columns := fs.Int("columns", 2, "Number of board columns")
	timeout := fs.Duration("timeout", 15*time.Second, "How long to wait for a payload")
	fs.Parse(args)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	projects, err := fetchSnapshot(*feedURL, *topic, *timeout)
	if err != nil {
		return err
	}
	printBoard(*columns, view.Build(time.Now(), projects))
	return nil
}

// fetchSnapshot joins the channel and waits for the first project payload.
func fetchSnapshot(url, topic string, timeout time.Duration) ([]domain.Project, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	join, err := json.Marshal(map[string]string{"event": "join", "topic": topic})
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return nil, fmt.Errorf("join channel: %w", err)
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read feed: %w", err)
		}
		projects, err := feed.DecodeProjects(payload)
		if err != nil {
			// Channel ack or other chatter; keep waiting for a project list.
			continue
		}
		return projects, nil
	}
	return nil, errors.New("no project payload received before timeout")
}

func printBoard(columnCount int, projects []domain.ViewProject) {
	heights := make([]float64, len(projects))
	for i, p := range projects {
		heights[i] = float64(1 + len(p.Current) + len(p.Previous))
	}
	board := layout.Columnize(columnCount, heights, projects)

	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	colWidth := width / columnCount

	for i, column := range board {
		dimColor.Printf("── column %d %s\n", i+1, strings.Repeat("─", max(0, colWidth-12)))
		for _, p := range column {
			printCard(p, colWidth)
		}
	}
}

func printCard(p domain.ViewProject, width int) {
	nameColor.Printf("%s", p.Name)
	if p.Status != nil {
		fmt.Print("  ")
		statusColor.Printf("[%s]", *p.Status)
	}
	fmt.Println()
	commitColor.Printf("  %s: %s\n", p.CommitAuthor, view.TrimText(max(10, width-len(p.CommitAuthor)-8), p.CommitMessage))
	for _, pipe := range p.Current {
		runningColor.Printf("  %5.1f%%", pipe.ProgressPercent)
		dimColor.Printf("  -%s  %s\n", view.FormatTime(pipe.RemainingSeconds), pipe.Author)
	}
	for _, pipe := range p.Previous {
		dimColor.Printf("  prev  %s: %s\n", pipe.Author, view.TrimText(40, pipe.Message))
	}
	fmt.Println()
}

func printUsage() {
	fmt.Printf("monitorctl %s\n\n", buildVersion)
	fmt.Print(`Usage:
	monitorctl snapshot [--feed ws://host/feed] [--topic projects] [--columns N] [--timeout 15s]
	monitorctl version
`)
}
