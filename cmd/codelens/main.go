package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/codelens-ai/codelens/internal/analysis"
)

func main() {
	// Load .env file if it exists.
	_ = godotenv.Load()

	ctx := context.Background()

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "analyze" {
		if err := runAnalyzeCommand(ctx, args[1:]); err != nil {
			log.Fatalf("analyze command failed: %v", err)
		}
		return
	}

	if err := runChatCommand(ctx, args); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

// runAnalyzeCommand runs a one-shot analysis of a file and prints the
// structured result.
func runAnalyzeCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	fileFlag := fs.String("file", "", "Path to the code file to analyze")
	aspectsFlag := fs.String("aspects", "security,performance,quality", "Comma-separated aspects to run")
	sessionFlag := fs.String("session", "", "Session id to record the analysis under (default: fresh id)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fileFlag == "" {
		return fmt.Errorf("-file is required")
	}

	code, err := os.ReadFile(*fileFlag)
	if err != nil {
		return fmt.Errorf("failed to read code file: %w", err)
	}

	aspects, err := parseAspects(*aspectsFlag)
	if err != nil {
		return err
	}

	sessionID := *sessionFlag
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	env, err := prepareRuntimeEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := env.Pipeline.Run(ctx, sessionID, string(code), aspects)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Println(string(out))

	stats := env.Store.GetStats(sessionID)
	log.Printf("Session %s: %d analyses, average score %d", sessionID, stats.TotalAnalyses, stats.AverageScore)
	return nil
}

// runChatCommand starts the interactive loop. Messages that look like code
// analysis requests are routed through the analysis pipeline; everything
// else is answered as chat.
func runChatCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("codelens", flag.ExitOnError)
	sessionFlag := fs.String("session", "", "Resume an existing session id")

	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := prepareRuntimeEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	sessionID := *sessionFlag
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	fmt.Printf("codelens — session %s (type 'exit' to quit, /stats or /history for session info)\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		switch line {
		case "/stats":
			printStats(env, sessionID)
			continue
		case "/history":
			printHistory(env, sessionID)
			continue
		}

		reply, err := env.Agent.HandleMessage(ctx, sessionID, line)
		if err != nil {
			log.Printf("⚠️  %v", err)
			continue
		}
		fmt.Println(reply.Text)
	}

	return scanner.Err()
}

func printStats(env *runtimeEnv, sessionID string) {
	stats := env.Store.GetStats(sessionID)
	fmt.Printf("analyses: %d  average score: %d\n", stats.TotalAnalyses, stats.AverageScore)
	fmt.Printf("issues found — security: %d  performance: %d  quality: %d\n",
		stats.SecurityIssuesFound, stats.PerformanceIssuesFound, stats.QualityIssuesFound)
}

func printHistory(env *runtimeEnv, sessionID string) {
	history := env.Store.GetHistory(sessionID, 0)
	if len(history) == 0 {
		fmt.Println("no analyses recorded yet")
		return
	}
	for i, result := range history {
		fmt.Printf("%d. %s\n", i+1, result.Summary)
	}
}

func parseAspects(raw string) ([]analysis.Aspect, error) {
	var aspects []analysis.Aspect
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		aspect := analysis.Aspect(part)
		if !aspect.Valid() {
			return nil, fmt.Errorf("unknown aspect %q (valid: security, performance, quality)", part)
		}
		aspects = append(aspects, aspect)
	}
	if len(aspects) == 0 {
		return nil, fmt.Errorf("at least one aspect is required")
	}
	return aspects, nil
}
