package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"document-qa/internal/helper"
	"document-qa/internal/session"
)

func runChat(ctx context.Context, a *app, s *session.Session, filePath string, in io.Reader, out io.Writer) error {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(out, boldGreen("Document QA"))
	fmt.Fprintln(out, faint("Commands: /upload <path>, /stats, /reset, exit"))
	if filePath != "" {
		if err := a.uploadFile(ctx, s, filePath); err != nil {
			fmt.Fprintln(out, red(err.Error()))
		}
	}
	fmt.Fprintln(out)

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, boldGreen("You: "))
		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nShutting down...")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input = strings.TrimSpace(line)
		}

		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"):
			return nil
		case input == "/reset":
			a.orchestrator.Reset(s)
			fmt.Fprintln(out, faint("Session cleared."))
		case input == "/stats":
			printStats(out, s.Snapshot())
		case strings.HasPrefix(input, "/upload"):
			path := strings.TrimSpace(strings.TrimPrefix(input, "/upload"))
			if path == "" {
				fmt.Fprintln(out, red("usage: /upload <path>"))
				continue
			}
			if err := a.uploadFile(ctx, s, path); err != nil {
				fmt.Fprintln(out, red(err.Error()))
				continue
			}
			printStats(out, s.Snapshot())
		default:
			ex := a.orchestrator.Ask(ctx, s, input)
			fmt.Fprint(out, boldCyan("Assistant: "))
			if ex.Err != nil {
				fmt.Fprintln(out, red(ex.Answer))
			} else {
				fmt.Fprintln(out, ex.Answer)
			}
			fmt.Fprintln(out)
		}
	}
}

func printStats(out io.Writer, snap session.Snapshot) {
	if snap.Document == nil {
		fmt.Fprintln(out, "No document uploaded.")
		return
	}
	stats := snap.Document.Stats
	fmt.Fprintf(out, "%s: %d pages, %d words, %d chunks (%s)\n",
		snap.Document.Name, stats.Pages, stats.Words, stats.Chunks, snap.State)
	helper.PrettyPrint(out, snap.Document)
}
