// Package main provides a terminal client for the hospital assistant API.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	sessionID string
)

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "A CLI client to chat with the hospital assistant service",
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a single question",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		answer, err := ask(args[0], session())
		if err != nil {
			log.Fatalf("Error asking the assistant: %v", err)
		}
		fmt.Println(answer.Response)
		printSources(answer.Sources)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant interactively",
	Run: func(cmd *cobra.Command, args []string) {
		runChat(session())
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the assistant service is up",
	Run: func(cmd *cobra.Command, args []string) {
		checkHealth()
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Clear a session's conversation memory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		clearSession(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "base URL of the assistant service")
	askCmd.Flags().StringVar(&sessionID, "session", "", "session id (generated when empty)")
	chatCmd.Flags().StringVar(&sessionID, "session", "", "session id (generated when empty)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(clearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session returns the chosen session id, generating a fresh one per run when
// none was given, the same scheme the hospital's web frontend used.
func session() string {
	if sessionID != "" {
		return sessionID
	}
	return fmt.Sprintf("cli_%d", time.Now().Unix())
}

func runChat(session string) {
	fmt.Printf("Connected to %s\n", serverURL)
	fmt.Printf("Session: %s (type 'exit' to quit)\n\n", session)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return
		}

		answer, err := ask(question, session)
		if err != nil {
			fmt.Printf("\nerror: %v\n\n", err)
			continue
		}
		fmt.Printf("\nassistant> %s\n\n", answer.Response)
	}
}

func printSources(sources []chatSource) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, s := range sources {
		fmt.Printf("  - [%s] %s (score %.3f)\n", s.Kind, s.Name, s.Score)
	}
}
