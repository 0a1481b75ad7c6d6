package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: vidagent <command> [flags]

Commands:
  analyze     start an analysis and wait for the result
  transcript  fetch the transcript of a session
  scenes      fetch the scene timeline of a session
  comparison  fetch the speech/visual comparison of a session
  search      search a session
  voice       run a spoken command against a session
  watch       follow a session in the terminal
  chat        talk to the video agent
  sessions    list sessions recorded by the proxy

Run "vidagent <command> -h" for the flags of a command.
`

type command func(ctx context.Context, args []string) error

var commands = map[string]command{
	"analyze":    runAnalyze,
	"transcript": runTranscript,
	"scenes":     runScenes,
	"comparison": runComparison,
	"search":     runSearch,
	"voice":      runVoice,
	"watch":      runWatch,
	"chat":       runChat,
	"sessions":   runSessions,
}

func main() {
	log.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
