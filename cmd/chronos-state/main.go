package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/vthunder/chronos/internal/config"
	"github.com/vthunder/chronos/internal/journal"
	"github.com/vthunder/chronos/internal/state"
	"github.com/vthunder/chronos/internal/store"
	"github.com/vthunder/chronos/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	// Config chatter would interleave with the report
	log.SetOutput(io.Discard)
	cfg, err := config.Load("chronos-state", nil)
	if err != nil {
		fatal(err)
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		fatal(err)
	}
	st, err := store.OpenReadOnly(dataDir, cfg.StorageBackend)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	inspector := state.NewInspector(dataDir, st, journal.New(dataDir))

	switch cmd {
	case "summary":
		handleSummary(inspector)
	case "health":
		handleHealth(inspector)
	case "activities":
		handleActivities(inspector, os.Args[2:])
	case "reminders":
		handleReminders(inspector, os.Args[2:])
	case "calls":
		handleCalls(inspector, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`chronos-state - Inspect chronos activity logs, reminders and call history

Usage: chronos-state <command> [options]

Commands:
  summary                Record counts and call journal size
  health                 Run health checks with recommendations

  activities             List activity logs, most recent first
  activities --limit=N   Show at most N logs (default 20)
  activities --scope=S   Only logs with task scope S

  reminders              List pending reminders due within the hour
  reminders --within=M   Look M minutes ahead instead

  calls                  Tail the tool call journal
  calls --count=N        Number of entries to show (default 20)
  calls --stats          Per-tool counts for today

Environment:
  CHRONOS_CONFIG         YAML config file
  CHRONOS_DATA_DIR       Data directory (default: "./chronos-data")
  CHRONOS_STORAGE_MODE   centralized or per-project`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func handleSummary(inspector *state.Inspector) {
	summary, err := inspector.Summary()
	if err != nil {
		fatal(err)
	}

	fmt.Println("State Summary")
	fmt.Println("=============")
	fmt.Printf("Data dir:   %s\n", summary.DataDir)
	fmt.Printf("Store:      %s (%s)\n", summary.Store.Backend, summary.Store.Location)
	fmt.Printf("Activities: %d total, %d ongoing\n", summary.Store.ActivityLogs, summary.Store.OngoingLogs)
	fmt.Printf("Reminders:  %d total, %d pending\n", summary.Store.Reminders, summary.Store.PendingReminders)
	fmt.Printf("Tool calls: %d\n", summary.Calls)
}

func handleHealth(inspector *state.Inspector) {
	health, err := inspector.Health()
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Health Status: %s\n", health.Status)
	if len(health.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range health.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if len(health.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range health.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
}

func handleActivities(inspector *state.Inspector, args []string) {
	fs := flag.NewFlagSet("activities", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of logs")
	scope := fs.String("scope", "", "Filter by task scope")
	fs.Parse(args)

	var taskScope types.TaskScope
	if *scope != "" {
		s, err := types.ParseTaskScope(*scope)
		if err != nil {
			fatal(err)
		}
		taskScope = s
	}
	printJSON(inspector.Activities(*limit, taskScope))
}

func handleReminders(inspector *state.Inspector, args []string) {
	fs := flag.NewFlagSet("reminders", flag.ExitOnError)
	within := fs.Int("within", 60, "Minutes to look ahead")
	fs.Parse(args)

	printJSON(inspector.Reminders(*within))
}

func handleCalls(inspector *state.Inspector, args []string) {
	fs := flag.NewFlagSet("calls", flag.ExitOnError)
	count := fs.Int("count", 20, "Number of entries to show")
	stats := fs.Bool("stats", false, "Per-tool counts for today")
	fs.Parse(args)

	if *stats {
		entries, err := inspector.CallsToday()
		if err != nil {
			fatal(err)
		}
		printJSON(journal.Summarize(entries))
		return
	}

	entries, err := inspector.Calls(*count)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Recent Tool Calls (%d)\n", len(entries))
	fmt.Println("=====================")
	for _, e := range entries {
		line := fmt.Sprintf("%s %-22s %-9s %dms", e.Timestamp.Format("2006-01-02 15:04:05"), e.Tool, e.Outcome, e.DurationMS)
		if e.Error != "" {
			line += "  " + e.Error
		}
		fmt.Println(line)
	}
}
