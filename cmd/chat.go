package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Subhodip-Mishra/Deephireai-1/internal/decision"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/logger"
)

const (
	PromptStart     = "Start the interview"
	PromptQuestions = "Show suggested questions"
	PromptExit      = "Exit"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive terminal interview against an uploaded resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("resume-id", "r", "", "id of an uploaded resume to interview against")
	chatCmd.Flags().StringP("thread-id", "t", "", "conversation thread id (defaults to the resume id)")
	chatCmd.MarkFlagRequired("resume-id")
}

func chat(cmd *cobra.Command) error {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	resumeID := cmd.Flag("resume-id").Value.String()
	threadID := cmd.Flag("thread-id").Value.String()
	if threadID == "" {
		threadID = resumeID
	}

	app, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("building application", zap.Error(err))
	}
	defer app.Close()

	menu := promptui.Select{
		Label: "Ready?",
		Items: []string{PromptStart, PromptQuestions, PromptExit},
	}

	for {
		_, choice, err := menu.Run()
		if err != nil {
			return promptErr(err)
		}

		switch choice {
		case PromptQuestions:
			questions, err := app.service.GenerateQuestions(ctx, resumeID)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s\n\n", questions)
			continue
		case PromptExit:
			return nil
		}
		break
	}

	session, err := app.service.StartInterview(ctx, resumeID)
	if err != nil {
		return err
	}
	fmt.Printf("\n> %s\n\n", session.InitialMessage)

	input := promptui.Prompt{Label: "<"}
	for {
		answer, err := input.Run()
		if err != nil {
			return promptErr(err)
		}
		if strings.TrimSpace(answer) == "" {
			continue
		}

		turn, err := app.service.ChatTurn(ctx, resumeID, threadID, answer)
		if err != nil {
			return err
		}
		fmt.Printf("\n> %s\n\n", turn.Answer)

		if turn.Decision != nil {
			printDecision(turn.Decision)
			return nil
		}
	}
}

func printDecision(dec *decision.Decision) {
	fmt.Printf("Decision: %s\n", dec.Status)
	fmt.Printf("Reasons: %s\n", dec.Reasons)
	fmt.Printf("Scores: technical depth %d, communication %d, problem solving %d, total %.2f\n",
		dec.Scores.TechnicalDepth, dec.Scores.Communication, dec.Scores.ProblemSolving, dec.Scores.Total)
}

func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		return nil
	}
	return err
}
