package main

import (
	"bufio"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/scrapedgit/backend/internal/domain"
	"github.com/scrapedgit/backend/internal/usecase"
)

var (
	chatLocation string
	chatTop      int
)

// confirmWords start the search once the assistant has asked for confirmation
var confirmWords = map[string]bool{
	"yes": true, "y": true, "ya": true, "search": true, "go": true, "ok": true,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Start an interactive session over stdin. Describe what you are looking for,
answer the follow-up questions, and reply "yes" when asked to confirm the search.
Type "change" to adjust the query, "reset" to start over and "exit" to quit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatLocation, "location", "l", "", "delivery city used for shipping estimates")
	chatCmd.Flags().IntVarP(&chatTop, "top", "n", 10, "number of ranked products to print")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	out := newUI(cmd.OutOrStdout())
	out.assistant("Hi! What product are you looking for today?")

	var location *string
	if chatLocation != "" {
		location = &chatLocation
	}

	var sessionID string
	var awaitingConfirm bool
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		out.hint("you>")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(line)

		switch {
		case line == "":
			continue
		case lower == "exit" || lower == "quit":
			return nil
		case lower == "reset":
			if sessionID != "" {
				_ = a.chat.DeleteSession(ctx, sessionID)
			}
			sessionID, awaitingConfirm = "", false
			out.assistant("Starting over. What are you looking for?")
			continue
		}

		req := usecase.ChatRequest{SessionID: sessionID, UserLocation: location}
		switch {
		case awaitingConfirm && confirmWords[lower]:
			req.ConfirmSearch = true
		case lower == "change":
			req.ModifySearch = true
		default:
			req.Message = line
		}

		var spin *spinner.Spinner
		if req.ConfirmSearch && !noColor {
			spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
			spin.Suffix = " searching marketplaces..."
			spin.Start()
		}
		resp, err := a.chat.HandleMessage(ctx, req)
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			out.warn("%v", err)
			continue
		}

		sessionID = resp.SessionID
		awaitingConfirm = resp.Type == usecase.ChatConfirmation
		printChatResponse(out, resp)
	}

	return scanner.Err()
}

func printChatResponse(out *ui, resp *usecase.ChatResponse) {
	switch resp.Type {
	case usecase.ChatResults:
		out.success("%s", resp.Message)
		out.results(resp.Products, chatTop)
		if resp.Summary != nil {
			out.summary(*resp.Summary)
		}
		out.assistant("Want to refine the search? Type \"change\" or describe something new.")
	case usecase.ChatNoResults:
		out.warn("%s", resp.Message)
	default:
		out.assistant("%s", resp.Message)
	}

	if len(resp.QuickReplies) > 0 {
		out.hint("[%s]", strings.Join(resp.QuickReplies, " | "))
	}
	if q := resp.AccumulatedQuery; q != nil && resp.Type == usecase.ChatClarification {
		out.hint("so far: %s", describeQuery(q))
	}
}

func describeQuery(q *domain.AccumulatedQuery) string {
	parts := []string{"product=" + q.KeywordValue()}
	if q.PreferredBrand != nil {
		parts = append(parts, "brand="+*q.PreferredBrand)
	}
	if q.MinPrice != nil {
		parts = append(parts, "min="+usecase.FormatPrice(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		parts = append(parts, "max="+usecase.FormatPrice(*q.MaxPrice))
	}
	if len(q.SpecConstraints) > 0 {
		parts = append(parts, "specs="+strings.Join(q.SpecConstraints, ","))
	}
	return strings.Join(parts, " ")
}
