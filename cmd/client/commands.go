package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atinyakov/FlashVocab/internal/client/app"
	"github.com/atinyakov/FlashVocab/internal/client/shell"
	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

func newShellCmd(withSession sessionRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Study flashcards interactively; sends the daily reminder while open",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			s.app.Scheduler().Start(cmd.Context())
			sh := shell.New(s.app, cmd.InOrStdin(), cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Type 'help' for a list of commands.")
			sh.Run(cmd.Context())
			return nil
		}),
	}
}

func newAccountCmds(withSession sessionRunner) []*cobra.Command {
	var email, password string
	auth := func(register bool) func(cmd *cobra.Command, _ []string, s *session) error {
		return func(cmd *cobra.Command, _ []string, s *session) error {
			p := shell.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			e, pw := p.PromptCredentials(email, password)
			login := s.app.Login
			if register {
				login = s.app.Register
			}
			if err := login(cmd.Context(), e, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s, %d words synced\n", e, s.app.Store().Len())
			return nil
		}
	}

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the sync server",
		Args:  cobra.NoArgs,
		RunE:  withSession(auth(true)),
	}
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in and download your words",
		Args:  cobra.NoArgs,
		RunE:  withSession(auth(false)),
	}
	for _, c := range []*cobra.Command{register, login} {
		c.Flags().StringVar(&email, "email", "", "account email")
		c.Flags().StringVar(&password, "password", "", "account password")
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out; local words are kept",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			if err := s.app.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		}),
	}
	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in account",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			email, ok := s.app.Account()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
			return nil
		}),
	}
	return []*cobra.Command{register, login, logout, whoami}
}

func newWordCmds(withSession sessionRunner) []*cobra.Command {
	analyze := &cobra.Command{
		Use:   "analyze <word>",
		Short: "Look a word up in the dictionary",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			word := strings.Join(args, " ")
			info, err := s.app.AnalyzeWord(cmd.Context(), word)
			if err != nil {
				return errors.New(shell.Describe(err))
			}
			shell.RenderAnalysis(cmd.OutOrStdout(), word, info)
			return nil
		}),
	}

	var form app.Form
	add := &cobra.Command{
		Use:   "add <word>",
		Short: "Add a word",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			form.Word = strings.Join(args, " ")
			res, err := s.app.AddWord(cmd.Context(), form)
			if err != nil {
				return errors.New(shell.Describe(err))
			}
			if res.AnalyzeErr != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Could not analyze, saved as entered.")
			}
			s.app.Wait()
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", res.Record.Word)
			return nil
		}),
	}
	add.Flags().StringVar(&form.Meaning, "meaning", "", "meaning; translated when empty")
	add.Flags().StringVar(&form.Example, "example", "", "example; looked up when empty")
	add.Flags().BoolVar(&form.AutoAnalyze, "analyze", true, "fill phonetics and definition from the dictionary")

	var status, search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List your words",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			s.app.Store().ApplyFilter(status, search)
			shell.RenderList(cmd.OutOrStdout(), s.app.Store().View())
			return nil
		}),
	}
	list.Flags().StringVar(&status, "status", vocab.FilterAll, "all, new, learning or known")
	list.Flags().StringVar(&search, "search", "", "filter by word, meaning or definition")

	decks := &cobra.Command{
		Use:   "decks",
		Short: "List deck files",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			shell.RenderDecks(cmd.OutOrStdout(), s.app.Decks())
			return nil
		}),
	}

	importDeck := &cobra.Command{
		Use:   "import <deck>",
		Short: "Add the words of a deck file",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			n, err := s.app.ImportDeck(args[0])
			if err != nil {
				return err
			}
			s.app.Wait()
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words\n", n)
			return nil
		}),
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Replace local words with the server copy",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			n, err := s.app.SyncFromServer(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d words\n", n)
			return nil
		}),
	}
	return []*cobra.Command{analyze, add, list, decks, importDeck, sync}
}

func newRemindCmd(withSession sessionRunner) *cobra.Command {
	remind := &cobra.Command{
		Use:   "remind",
		Short: "Configure the daily reminder bot",
	}

	config := &cobra.Command{
		Use:   "config",
		Short: "Edit the reminder time and bot settings",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			cur, err := s.app.ReminderConfig()
			if err != nil {
				return err
			}
			p := shell.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			cfg, err := p.PromptReminder(cur)
			if err != nil {
				return err
			}
			if err := s.app.SaveReminder(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved: enabled=%t at %02d:%02d\n", cfg.Enabled, cfg.Hour, cfg.Minute)
			return nil
		}),
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether the account is linked to a chat",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			st := s.app.ReminderStatus(cmd.Context())
			if st.Connected {
				fmt.Fprintf(cmd.OutOrStdout(), "Connected, chat ID %s\n", st.ChatID)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not connected. Message the bot and run 'remind detect'.")
			}
			return nil
		}),
	}

	test := &cobra.Command{
		Use:   "test",
		Short: "Send the reminder now",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			if err := s.app.TestSend(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sent")
			return nil
		}),
	}

	var token string
	detect := &cobra.Command{
		Use:   "detect",
		Short: "Find the chat that last messaged the bot",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			id, err := s.app.DetectChat(cmd.Context(), token)
			if err != nil {
				return err
			}
			if id == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No chat found yet. Send the bot a message first.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chat ID %s saved\n", id)
			return nil
		}),
	}
	detect.Flags().StringVar(&token, "token", "", "bot token; defaults to the saved one")

	remind.AddCommand(config, status, test, detect)
	return remind
}
