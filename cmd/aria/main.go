package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"aria/internal/config"
	"aria/internal/intent"
	"aria/internal/llm"
	"aria/internal/logging"
	"aria/internal/pipeline"
	"aria/internal/store"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

var (
	configPath string
	language   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aria",
		Short: "Talk to aria from the terminal",
		Long: "Reads utterances from stdin, parses them into todo, expense, and\n" +
			"calendar actions, and asks for confirmation before saving anything.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (yaml)")
	rootCmd.Flags().StringVarP(&language, "language", "l", "en", "utterance language (en, zh)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

func runREPL() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetDefault(os.Stderr, logging.ParseLevel(cfg.Log.Level))

	chatClient := llm.NewRetryClient(
		llm.NewOpenAIClient(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, cfg.LLM.Timeout, logging.Nop()),
		cfg.LLM.MaxRetries,
		logging.Nop(),
	)
	classifier := intent.NewLLMClassifier(chatClient, logging.Nop(),
		intent.WithTemperature(cfg.LLM.Temperature),
		intent.WithCacheSize(cfg.LLM.CacheSize),
	)

	memory := store.NewMemory()
	committer := pipeline.NewCommitter(memory.Stores())
	session := pipeline.NewSession(uuid.NewString(), "cli", language, nil, classifier, committer, logging.Nop())

	fmt.Printf("%s type what you want to do, %s to quit\n", bold("aria:"), gray("ctrl-d"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(cyan("> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			return nil
		}
		handleUtterance(session, text)
	}
}

func handleUtterance(session *pipeline.Session, text string) {
	if err := session.StartListening(); err != nil {
		fmt.Println(red("session busy: " + err.Error()))
		return
	}
	result, err := session.ProcessText(context.Background(), text)
	if err != nil {
		fmt.Println(red("could not parse: " + err.Error()))
		return
	}
	if result.Empty() {
		fmt.Println(yellow("nothing actionable in that, try rephrasing"))
		return
	}

	for i, p := range result.All() {
		fmt.Printf("  %s %s\n", gray(fmt.Sprintf("%d.", i+1)), describe(p))
	}

	if !confirm(result.Len()) {
		session.Cancel()
		fmt.Println(gray("discarded"))
		return
	}

	// A transient store failure keeps the confirmation pending, so offer a
	// retry instead of dropping the intent.
	for {
		records, err := session.Confirm(context.Background())
		if err == nil {
			for _, record := range records {
				fmt.Printf("%s %s %s\n", green("saved"), record.Kind, gray(record.ID))
			}
			return
		}
		fmt.Println(red("save failed: " + err.Error()))
		if !retryPrompt() {
			session.Cancel()
			fmt.Println(gray("discarded"))
			return
		}
	}
}

func confirm(count int) bool {
	label := "Save this action"
	if count > 1 {
		label = fmt.Sprintf("Save these %d actions", count)
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   "y",
	}
	_, err := prompt.Run()
	return err == nil
}

func retryPrompt() bool {
	prompt := promptui.Prompt{
		Label:     "Retry saving",
		IsConfirm: true,
		Default:   "y",
	}
	_, err := prompt.Run()
	return err == nil
}

func describe(p intent.ParsedIntent) string {
	switch {
	case p.Todo != nil:
		s := fmt.Sprintf("%s %q", bold("todo"), p.Todo.Title)
		if p.Todo.DueDate != "" {
			s += gray(" due " + p.Todo.DueDate)
		}
		if p.Todo.Priority != "" {
			s += gray(" [" + p.Todo.Priority + "]")
		}
		return s
	case p.Expense != nil:
		s := fmt.Sprintf("%s %s %s", bold("expense"), p.Expense.Amount.String(), p.Expense.Currency)
		if p.Expense.Category != "" {
			s += gray(" (" + p.Expense.Category + ")")
		}
		return s
	case p.Event != nil:
		s := fmt.Sprintf("%s %q on %s", bold("event"), p.Event.Title, p.Event.Date)
		if !p.Event.AllDay && p.Event.StartTime != "" {
			s += gray(" at " + p.Event.StartTime)
		}
		return s
	default:
		return yellow("unparsed: " + p.SourceText)
	}
}
