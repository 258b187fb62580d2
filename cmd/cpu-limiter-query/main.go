package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"cpu-limiter/internal/database"
	"cpu-limiter/internal/exitcodes"
)

func main() {
	// Parse command-line flags
	dbPath := flag.String("db", "/var/lib/cpu-limiter/actions.db", "Path to action database")
	recent := flag.Int("recent", 0, "Show N most recent actions")
	stats := flag.Bool("stats", false, "Show action statistics")
	pid := flag.Int("pid", 0, "Filter by process id")
	action := flag.String("action", "", "Filter by action (SUSPEND, RESUME, RELEASE)")
	days := flag.Int("days", 30, "Number of days for statistics (default: 30)")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	flag.Parse()

	// Open database
	db, err := database.NewActionDB(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	// Handle different query modes
	switch {
	case *stats:
		showStats(db, *days, *jsonOutput)
	case *recent > 0:
		showRecent(db, *recent, *jsonOutput)
	case *pid > 0:
		showByPID(db, *pid, *jsonOutput)
	case *action != "":
		showByAction(db, *action, *jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  cpu-limiter-query --recent 20        # Show 20 most recent actions")
		fmt.Println("  cpu-limiter-query --stats            # Show action statistics")
		fmt.Println("  cpu-limiter-query --pid 4242         # Show actions against pid 4242")
		fmt.Println("  cpu-limiter-query --action SUSPEND   # Show only suspend actions")
		os.Exit(exitcodes.InvalidConfig)
	}
}

func showStats(db *database.ActionDB, days int, jsonOutput bool) {
	stats, err := db.GetActionStats(days)
	if err != nil {
		log.Fatalf("ERROR: Failed to get statistics: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Limiter Action Statistics (Last %d days)\n", days)
	fmt.Printf("Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Printf("Total Suspends:  %d\n", stats.TotalSuspends)
	fmt.Printf("Total Resumes:   %d\n", stats.TotalResumes)
	fmt.Printf("Total Releases:  %d\n\n", stats.TotalReleases)

	if len(stats.ByMode) > 0 {
		fmt.Println("By Mode:")
		for mode, count := range stats.ByMode {
			fmt.Printf("  %-10s %d\n", mode, count)
		}
		fmt.Println()
	}

	if len(stats.ByPID) > 0 {
		fmt.Println("Most Suspended PIDs:")
		for pid, count := range stats.ByPID {
			fmt.Printf("  %-8d %d\n", pid, count)
		}
	}
}

func showRecent(db *database.ActionDB, limit int, jsonOutput bool) {
	records, err := db.GetRecentActions(limit)
	if err != nil {
		log.Fatalf("ERROR: Failed to get recent actions: %v", err)
	}
	output(records, jsonOutput)
}

func showByPID(db *database.ActionDB, pid int, jsonOutput bool) {
	records, err := db.GetActionsByPID(pid)
	if err != nil {
		log.Fatalf("ERROR: Failed to query by pid: %v", err)
	}
	output(records, jsonOutput)
}

func showByAction(db *database.ActionDB, action string, jsonOutput bool) {
	records, err := db.GetActionsByAction(action)
	if err != nil {
		log.Fatalf("ERROR: Failed to query by action: %v", err)
	}
	output(records, jsonOutput)
}

func output(records []database.ActionRecord, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return
	}
	printRecords(records)
}

func printRecords(records []database.ActionRecord) {
	if len(records) == 0 {
		fmt.Println("No actions found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tACTION\tPID\tMODE\tCPU%\tLIMIT%")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.1f\t%d\n",
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Action, r.PID, r.Mode, r.CPUPercent, r.LimitPercent)
	}
	w.Flush()
}
