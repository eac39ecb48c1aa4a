package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cozyclean/blitz/internal/burst"
	"github.com/cozyclean/blitz/internal/cli"
	"github.com/cozyclean/blitz/internal/config"
	"github.com/cozyclean/blitz/internal/energy"
	"github.com/cozyclean/blitz/internal/format"
	"github.com/cozyclean/blitz/internal/library"
	"github.com/cozyclean/blitz/internal/logging"
	"github.com/cozyclean/blitz/internal/triage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	directoryFlag    string
	thresholdFlag    int64
	favoritesCapFlag int
	energyFlag       int64
	maxDepthFlag     int
	limitFlag        int
	dryRunFlag       bool
)

// rootCmd is the main Cobra command for the blitz-triage CLI.
var rootCmd = &cobra.Command{
	Use:   "blitz-triage",
	Short: "Terminal photo triage - blitz through burst groups, keep or delete",
	Long: `Blitz Triage scans a directory of photos, groups rapid-fire bursts by
capture time, and walks you through one decision per group: keep, delete,
favorite, or defer for a second look. Deferred groups come back in a
review pass before the session finishes.

Deleted photos are moved into a .blitz-trash folder inside the scanned
directory, never unlinked outright. Every decision costs one energy; the
session ends when the balance runs out.

Examples:
  blitz-triage --directory /path/to/photos
  blitz-triage -d ./camera-roll --dry-run
  blitz-triage -d ./photos --max-depth 2 --limit 100
  blitz-triage -d ./burst-test --threshold 2500 --energy 200
  blitz-triage  # Interactive mode - prompts for directory`,
	Run: runMain,
}

func init() {
	def := config.Default()
	rootCmd.Flags().StringVarP(&directoryFlag, "directory", "d", "", "Directory containing photos to triage")
	rootCmd.Flags().Int64Var(&thresholdFlag, "threshold", def.BurstThresholdMs, "Burst gap threshold in milliseconds")
	rootCmd.Flags().IntVar(&favoritesCapFlag, "favorites-cap", def.FavoritesCap, "Maximum photos in the favorites bucket")
	rootCmd.Flags().Int64Var(&energyFlag, "energy", def.InitialEnergy, "Energy balance for this session; every decision costs energy")
	rootCmd.Flags().IntVar(&maxDepthFlag, "max-depth", 0, "Maximum recursion depth (0 = unlimited)")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum photos to process (0 = unlimited)")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show the final report without moving any files")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	cfg := config.Default().FromEnv()
	if cmd.Flags().Changed("threshold") {
		cfg.BurstThresholdMs = thresholdFlag
	}
	if cmd.Flags().Changed("favorites-cap") {
		cfg.FavoritesCap = favoritesCapFlag
	}
	if cmd.Flags().Changed("energy") {
		cfg.InitialEnergy = energyFlag
	}

	dirPath := directoryFlag
	if dirPath == "" {
		dirPath = cli.PromptForDirectory()
	}
	dirPath = cli.ValidateAndResolveDirectory(dirPath)

	runBlitz(dirPath, cfg)
}

// runBlitz scans a directory, groups bursts, and drives the interactive
// decision loop through both phases.
func runBlitz(dirPath string, cfg config.Config) {
	start := time.Now()

	log.Info().
		Str("path", dirPath).
		Int("maxDepth", maxDepthFlag).
		Int("limit", limitFlag).
		Int64("burstThresholdMs", cfg.BurstThresholdMs).
		Msg("Starting blitz triage")

	items, err := library.Scan(dirPath, library.ScanOptions{
		MaxDepth: maxDepthFlag,
		Limit:    limitFlag,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", dirPath).Msg("failed to scan directory")
	}
	if len(items) == 0 {
		log.Fatal().Str("path", dirPath).Msg("no photos found in directory")
	}

	var classifier burst.Classifier = burst.Inline{}
	if len(items) > cfg.OffloadThreshold {
		off := burst.NewOffloaded()
		defer off.Close()
		classifier = off
	}
	boundaries, err := classifier.Classify(context.Background(), triage.Timestamps(items), cfg.BurstThresholdMs)
	if err != nil {
		log.Fatal().Err(err).Msg("burst classification failed")
	}
	groups, err := triage.BuildGroups(items, boundaries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build groups")
	}

	burstCount := 0
	for _, g := range groups {
		if g.IsBurst() {
			burstCount++
		}
	}

	// Display header
	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("Blitz Triage")
	fmt.Println("============================================")
	fmt.Printf("Directory: %s\n", dirPath)
	fmt.Printf("Photos found: %d\n", len(items))
	fmt.Printf("Groups: %d (%d bursts, %d singles)\n", len(groups), burstCount, len(groups)-burstCount)
	if limitFlag > 0 && len(items) == limitFlag {
		fmt.Printf("(limited to %d)\n", limitFlag)
	}
	fmt.Printf("Burst threshold: %dms\n", cfg.BurstThresholdMs)
	fmt.Printf("Energy: %d\n", cfg.InitialEnergy)
	if dryRunFlag {
		fmt.Println("Mode: DRY RUN (nothing will be moved)")
	}
	fmt.Println("--------------------------------------------")

	gate := energy.NewGate(energy.NewMemoryLedger(cfg.InitialEnergy), "local", cfg.InitialEnergy)
	session, err := triage.NewSession(groups, triage.Options{
		FavoritesCap: cfg.FavoritesCap,
		DecisionCost: cfg.DecisionCost,
		Gate:         gate,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start session")
	}

	reader := bufio.NewReader(os.Stdin)
	if !decisionLoop(session, gate, reader, dirPath) {
		fmt.Println("\nAborted. No files were moved.")
		return
	}

	printReport(session, dirPath, time.Since(start))

	outcome, ok := session.Outcome()
	if !ok || len(outcome.Deleted) == 0 {
		fmt.Println("Nothing to move. All photos stay where they are.")
		return
	}

	if dryRunFlag {
		fmt.Println("Dry run complete. No files were moved.")
		return
	}

	commitDeletions(session, outcome, dirPath)
}

// decisionLoop drives both the active pass and the deferred review pass.
// Returns false when the user abandons or the energy runs out.
func decisionLoop(session *triage.Session, gate *energy.Gate, reader *bufio.Reader, dirPath string) bool {
	for session.Phase() != triage.PhaseFinished {
		var target triage.CaptureItem
		reviewing := session.Phase() == triage.PhaseReviewingDeferred

		if reviewing {
			item, ok := session.CurrentReview()
			if !ok {
				break
			}
			printReviewItem(session, item, dirPath)
			target = item
		} else {
			group, ok := session.Current()
			if !ok {
				break
			}
			printGroup(session, group, dirPath)
			target = group.Best()
		}

		if reviewing {
			fmt.Printf("(energy %d) [k]eep [d]elete [f]avorite [u]ndo [q]uit: ", gate.Remaining())
		} else {
			fmt.Printf("(energy %d) [k]eep [d]elete [f]avorite [l]ater [u]ndo [q]uit: ", gate.Remaining())
		}

		input, err := reader.ReadString('\n')
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read input, abandoning session")
			session.Discard()
			return false
		}

		var derr error
		switch strings.TrimSpace(strings.ToLower(input)) {
		case "k", "keep":
			derr = session.DecideRight(target.ID)
		case "d", "delete":
			derr = session.DecideLeft(target.ID)
		case "f", "favorite":
			derr = session.DecideUp(target.ID)
		case "l", "later":
			derr = session.DecideDown(target.ID)
		case "u", "undo":
			derr = session.Undo()
		case "q", "quit":
			session.Discard()
			return false
		case "":
			continue
		default:
			fmt.Println("   Unrecognized choice.")
			continue
		}

		switch derr {
		case nil:
		case triage.ErrFavoritesFull:
			fmt.Printf("   Favorites are full (%d). Keep or delete instead.\n", session.FavoritesCap())
		case triage.ErrNothingToUndo:
			fmt.Println("   Nothing to undo.")
		case triage.ErrQuotaExhausted:
			fmt.Println("\nOut of energy. The session cannot continue.")
			session.Discard()
			return false
		default:
			fmt.Printf("   %v\n", derr)
		}
	}
	return true
}

func printGroup(session *triage.Session, group triage.Group, dirPath string) {
	fmt.Println()
	taken := time.UnixMilli(group.Best().TimestampMs).Format("2006-01-02 15:04:05")
	if group.IsBurst() {
		fmt.Printf("Group %d/%d — BURST of %d (%s, %s)\n",
			session.Cursor()+1, len(session.Groups()), group.Len(), format.Bytes(group.SizeBytes()), taken)
		for i, it := range group.Items() {
			marker := "  "
			if i == group.BestIndex() {
				marker = "★ "
			}
			fmt.Printf("   %s%2d. %s (%s)\n", marker, i+1, displayPath(dirPath, it.Preview), format.Bytes(it.SizeBytes))
		}
	} else {
		it := group.Item(0)
		fmt.Printf("Photo %d/%d — %s (%s, %s)\n",
			session.Cursor()+1, len(session.Groups()), displayPath(dirPath, it.Preview), format.Bytes(it.SizeBytes), taken)
	}
}

func printReviewItem(session *triage.Session, item triage.CaptureItem, dirPath string) {
	fmt.Println()
	taken := time.UnixMilli(item.TimestampMs).Format("2006-01-02 15:04:05")
	fmt.Printf("Deferred %d/%d — %s (%s, %s)\n",
		session.ReviewCursor()+1, len(session.Deferred()), displayPath(dirPath, item.Preview), format.Bytes(item.SizeBytes), taken)
}

func printReport(session *triage.Session, dirPath string, elapsed time.Duration) {
	sum := session.Summary()

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("Blitz Report")
	fmt.Println("============================================")
	fmt.Printf("Groups decided: %d in %s\n", sum.Decided, cli.FormatDurationShort(elapsed))
	fmt.Printf("Kept: %d\n", sum.Kept)
	fmt.Printf("Favorited: %d/%d\n", sum.Favorited, session.FavoritesCap())
	fmt.Printf("Deleted: %d group(s)\n", sum.Deleted)

	outcome, ok := session.Outcome()
	if ok && len(outcome.Deleted) > 0 {
		fmt.Println("--------------------------------------------")
		for _, id := range outcome.Deleted {
			if g, found := session.GroupOf(id); found {
				for _, it := range g.Items() {
					fmt.Printf("   DELETE %s (%s)\n", displayPath(dirPath, it.Preview), format.Bytes(it.SizeBytes))
				}
			}
		}
	}
	fmt.Printf("Space to reclaim: %s\n", format.Bytes(sum.DeletedBytes))
	fmt.Println("============================================")
	fmt.Println()
}

// commitDeletions moves every member of every deleted group into the
// trash folder after a final confirmation.
func commitDeletions(session *triage.Session, outcome triage.Outcome, dirPath string) {
	var doomed []triage.CaptureItem
	for _, id := range outcome.Deleted {
		if g, ok := session.GroupOf(id); ok {
			doomed = append(doomed, g.Items()...)
		}
	}

	fmt.Printf("Move %d file(s) to %s? (y/N): ", len(doomed), filepath.Join(dirPath, library.TrashDirName))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read input, aborting")
		fmt.Println("Aborted. No files were moved.")
		return
	}
	input = strings.TrimSpace(strings.ToLower(input))
	if input != "y" && input != "yes" {
		fmt.Println("Aborted. No files were moved.")
		return
	}

	fmt.Println()
	var trashedCount, trashErrors int
	var reclaimed int64
	for _, it := range doomed {
		if _, err := library.MoveToTrash(dirPath, it.Preview); err != nil {
			log.Error().Err(err).Str("path", it.Preview).Msg("Failed to trash file")
			fmt.Printf("   FAILED: %s - %v\n", displayPath(dirPath, it.Preview), err)
			trashErrors++
		} else {
			fmt.Printf("   Trashed: %s\n", displayPath(dirPath, it.Preview))
			trashedCount++
			reclaimed += it.SizeBytes
		}
	}

	fmt.Println()
	fmt.Printf("Moved %d file(s) to trash", trashedCount)
	if trashErrors > 0 {
		fmt.Printf(", %d error(s)", trashErrors)
	}
	fmt.Printf(", reclaimed %s\n", format.Bytes(reclaimed))
}

// displayPath shortens an absolute path to its directory-relative form
// for terminal output.
func displayPath(dirPath, path string) string {
	display := filepath.Base(path)
	if rel, err := filepath.Rel(dirPath, path); err == nil && rel != display {
		display = rel
	}
	return display
}
