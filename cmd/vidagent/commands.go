package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	openaigo "github.com/openai/openai-go/v3"

	"github.com/kdimtricp/vidagent/internal/agent"
	"github.com/kdimtricp/vidagent/internal/client"
	"github.com/kdimtricp/vidagent/internal/config"
	"github.com/kdimtricp/vidagent/internal/database"
	"github.com/kdimtricp/vidagent/internal/display"
	"github.com/kdimtricp/vidagent/internal/storage"
	"github.com/kdimtricp/vidagent/internal/tools"
	"github.com/kdimtricp/vidagent/internal/tui"
)

var errToolFailed = errors.New("tool reported an error")

type env struct {
	cfg     *config.Config
	proxy   *client.Client
	toolset *tools.Toolset
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	proxy := client.New(cfg.ProxyURL, cfg.HTTPTimeout)
	return &env{
		cfg:     cfg,
		proxy:   proxy,
		toolset: tools.New(proxy, cfg.ToolsConfig()),
	}, nil
}

// printResult writes the result as indented JSON and turns a failed result
// into a non-zero exit.
func printResult(w io.Writer, r tools.Result) error {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	if r.Failed() {
		return fmt.Errorf("%w: %s", errToolFailed, r.Error)
	}
	return nil
}

// timestampFlag is unset unless given on the command line.
type timestampFlag struct {
	value *float64
}

func (f *timestampFlag) String() string {
	if f.value == nil {
		return ""
	}
	return fmt.Sprint(*f.value)
}

func (f *timestampFlag) Set(s string) error {
	var v float64
	if _, err := fmt.Sscan(s, &v); err != nil {
		return fmt.Errorf("invalid timestamp %q", s)
	}
	f.value = &v
	return nil
}

func requireSession(fs *flag.FlagSet, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		fs.Usage()
		return errors.New("-session is required")
	}
	return nil
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	videoURL := fs.String("url", "", "video URL or path known to the backend")
	analysisType := fs.String("type", "", "optional analysis hint")
	outDir := fs.String("out", "", "export the completed payload to this directory")
	save := fs.Bool("save", false, "export the completed payload to RESULTS_DIR")
	plain := fs.Bool("text", false, "print a readable summary instead of JSON")
	fs.Parse(args)

	if *videoURL == "" && fs.NArg() > 0 {
		*videoURL = fs.Arg(0)
	}
	if *videoURL == "" {
		fs.Usage()
		return errors.New("-url is required")
	}

	e, err := setup()
	if err != nil {
		return err
	}

	result := e.toolset.StartAndPoll(ctx, *videoURL, *analysisType)

	dir := *outDir
	if dir == "" && *save {
		dir = e.cfg.ResultsDir
	}
	if dir != "" && result.Success {
		path, err := exportResult(dir, result)
		if err != nil {
			return err
		}
		log.Printf("Saved result to %s", path)
	}

	if *plain && result.Success {
		parsed, err := display.DecodeSnapshot(result.SessionID, result.Data)
		if err != nil {
			return err
		}
		fmt.Print(display.RenderText(parsed, 100))
		return nil
	}
	return printResult(os.Stdout, result)
}

func exportResult(dir string, result tools.Result) (string, error) {
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		return "", err
	}
	return store.SaveResult(result.SessionID, result.Data)
}

func runTranscript(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transcript", flag.ExitOnError)
	sessionID := fs.String("session", "", "session id")
	var ts timestampFlag
	fs.Var(&ts, "t", "position in seconds")
	fs.Parse(args)
	if err := requireSession(fs, *sessionID); err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	return printResult(os.Stdout, e.toolset.GetTranscript(ctx, *sessionID, ts.value))
}

func runScenes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scenes", flag.ExitOnError)
	sessionID := fs.String("session", "", "session id")
	var ts timestampFlag
	fs.Var(&ts, "t", "position in seconds")
	fs.Parse(args)
	if err := requireSession(fs, *sessionID); err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	return printResult(os.Stdout, e.toolset.GetScenes(ctx, *sessionID, ts.value))
}

func runComparison(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comparison", flag.ExitOnError)
	sessionID := fs.String("session", "", "session id")
	fs.Parse(args)
	if err := requireSession(fs, *sessionID); err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	return printResult(os.Stdout, e.toolset.GetComparison(ctx, *sessionID))
}

func runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	sessionID := fs.String("session", "", "session id")
	query := fs.String("q", "", "search terms")
	fs.Parse(args)
	if err := requireSession(fs, *sessionID); err != nil {
		return err
	}
	if *query == "" {
		*query = strings.Join(fs.Args(), " ")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	return printResult(os.Stdout, e.toolset.Search(ctx, *sessionID, *query))
}

func runVoice(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("voice", flag.ExitOnError)
	sessionID := fs.String("session", "", "session id (needed for describe and transcript)")
	fs.Parse(args)

	command := strings.Join(fs.Args(), " ")
	if command == "" {
		fs.Usage()
		return errors.New("a spoken command is required")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	return printResult(os.Stdout, e.toolset.VoiceCommand(ctx, command, *sessionID))
}

func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	sessionID := fs.String("session", "", "session id")
	plain := fs.Bool("plain", false, "print snapshots instead of the interactive view")
	fs.Parse(args)
	if err := requireSession(fs, *sessionID); err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	watcher := display.NewWatcher(e.proxy, e.cfg.DisplayInterval)

	if !*plain {
		return tui.Run(ctx, watcher, *sessionID)
	}

	for snap := range watcher.Watch(ctx, *sessionID) {
		if !snap.Done() {
			fmt.Printf("%s: %s (poll %d)\n", snap.SessionID, snap.Status, snap.Polls)
			continue
		}
		fmt.Print(display.RenderText(snap, 100))
	}
	return ctx.Err()
}

func runChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	maxRounds := fs.Int("rounds", agent.DefaultMaxRounds, "maximum tool-calling rounds per message")
	fs.Parse(args)

	e, err := setup()
	if err != nil {
		return err
	}

	a, err := agent.New(tools.NewRegistry(e.toolset), agent.Config{
		APIKey:    e.cfg.OpenAIAPIKey,
		BaseURL:   e.cfg.OpenAIBaseURL,
		Model:     e.cfg.OpenAIModel,
		MaxRounds: *maxRounds,
	})
	if err != nil {
		return err
	}

	fmt.Println("Ask about a video. Start with a URL to analyse it. Ctrl-D to exit.")

	var history []openaigo.ChatCompletionMessageParamUnion
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		reply, next, err := a.Chat(ctx, history, text)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		history = next
		fmt.Println(reply)
	}
}

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of sessions to show")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ledger, db, err := database.OpenLedger(cfg.Database)
	if err != nil {
		return err
	}
	if ledger == nil {
		return errors.New("session ledger is disabled (DB_TYPE=none)")
	}
	defer db.Close()

	records, err := ledger.ListRecent(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTATUS\tSTARTED\tVIDEO")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.SessionID, r.Status, r.CreatedAt.Local().Format("Jan 2 15:04"), r.VideoInput)
	}
	return tw.Flush()
}
