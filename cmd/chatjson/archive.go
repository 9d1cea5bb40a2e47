package main

import (
	"fmt"
	"time"

	"github.com/AoWangg/chat-json/internal/store"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived conversation groups",
	Long:  `List, show and remove sessions recorded in the group archive.`,
}

var archiveLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		formatter, err := newFormatter(loadedCfg)
		if err != nil {
			return err
		}

		sessions, err := store.ListSessions(loadedCfg.Archive.Path)
		if err != nil {
			return err
		}

		out, err := formatter.FormatSessions(sessions)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <session_id>",
	Short: "Show the groups of an archived session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		formatter, err := newFormatter(loadedCfg)
		if err != nil {
			return err
		}

		records, err := store.ReadGroups(loadedCfg.Archive.Path, args[0])
		if err != nil {
			return err
		}

		for _, rec := range records {
			out, err := formatter.FormatGroup(&rec.Group)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

var archiveRmCmd = &cobra.Command{
	Use:   "rm <session_id>",
	Short: "Remove an archived session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		w, err := openArchive(loadedCfg)
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()

		if err := w.DeleteSession(args[0]); err != nil {
			return fmt.Errorf("failed to remove session %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Session '%s' removed\n", args[0])
		return nil
	},
}

var archiveUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Remove a stale archive lock",
	Long:  `Remove the archive lock file left behind by a writer that did not exit cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		maxAge, _ := cmd.Flags().GetDuration("max-age")
		force, _ := cmd.Flags().GetBool("force")

		root, err := store.ResolveRoot(loadedCfg.Archive.Path)
		if err != nil {
			return err
		}
		removed, err := store.CleanupStaleLock(root, maxAge, force)
		if err != nil {
			return fmt.Errorf("failed to clean archive lock: %w", err)
		}

		switch {
		case removed:
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Stale lock removed")
		case force:
			fmt.Fprintln(cmd.OutOrStdout(), "No stale lock found")
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing removed (use --force to remove a stale lock)")
		}
		return nil
	},
}

func init() {
	archiveUnlockCmd.Flags().Duration("max-age", time.Hour, "minimum age of a lock considered stale")
	archiveUnlockCmd.Flags().Bool("force", false, "remove the stale lock")

	archiveCmd.AddCommand(archiveLsCmd)
	archiveCmd.AddCommand(archiveShowCmd)
	archiveCmd.AddCommand(archiveRmCmd)
	archiveCmd.AddCommand(archiveUnlockCmd)
	rootCmd.AddCommand(archiveCmd)
}
