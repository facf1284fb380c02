package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"ai-image-enhancer/internal/config"
	"ai-image-enhancer/internal/controller"
	"ai-image-enhancer/internal/logging"
	"ai-image-enhancer/internal/prompts"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

func enhanceCmd() *cobra.Command {
	var (
		level  int
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "enhance <image>",
		Short: "Enhance one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			file := controller.File{
				Name:     filepath.Base(args[0]),
				MimeType: mimetype.Detect(data).String(),
				Data:     data,
			}
			if err := a.ctrl.SelectFile(file); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if cmd.Flags().Changed("level") {
				if err := a.ctrl.SetLevel(level); err != nil {
					return err
				}
			}

			if err := a.ctrl.Enhance(cmd.Context()); err != nil {
				return err
			}
			if outDir != "" {
				if _, err := a.ctrl.Download(outDir); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&level, "level", "l", prompts.DefaultLevel, "Enhancement level 1-5 (defaults to the saved default level)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to save the enhanced PNG into")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show or clear past enhancements",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List past enhancements, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.history.List()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No enhancements yet")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLEVEL\tWHEN")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%d (%s)\t%s\n", e.ID, e.Level, prompts.Name(e.Level), formatAge(e.CreatedAt, time.Now()))
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one past enhancement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid history id %q", args[0])
			}
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ctrl.ShowHistoryEntry(id)
		},
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.history.Len() > 0 && !yes && !confirm(cmd, "Are you sure you want to clear all enhancement history? This cannot be undone.") {
				return nil
			}
			err = a.ctrl.ClearHistory(cmd.Context())
			if errors.Is(err, controller.ErrHistoryEmpty) {
				return nil
			}
			return err
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(list, show, clearCmd)
	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the API key, model and default level",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			s, _, err := a.settings.Load()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "api key\t%s\n", orNotSet(logging.RedactKey(s.APIKey)))
			fmt.Fprintf(w, "model\t%s\n", orNotSet(s.Model))
			fmt.Fprintf(w, "default level\t%d (%s)\n", s.DefaultLevel, prompts.Name(s.DefaultLevel))
			fmt.Fprintf(w, "relay\t%s\n", a.cfg.RelayURL)
			return w.Flush()
		},
	}

	var (
		apiKey       string
		model        string
		defaultLevel int
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Save settings; omitted flags keep their saved values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			current, _, err := a.settings.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-key") {
				current.APIKey = apiKey
			}
			if cmd.Flags().Changed("model") {
				current.Model = model
			}
			if cmd.Flags().Changed("default-level") {
				current.DefaultLevel = defaultLevel
			}
			return a.ctrl.SaveSettings(current)
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key")
	set.Flags().StringVar(&model, "model", "", "Model name, e.g. models/gemini-2.5-flash-image")
	set.Flags().IntVar(&defaultLevel, "default-level", prompts.DefaultLevel, "Default enhancement level 1-5")

	cmd.AddCommand(show, set)
	return cmd
}

func modelsCmd() *cobra.Command {
	var apiKey string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models usable for enhancement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			current, _, err := a.settings.Load()
			if err != nil {
				return err
			}
			if apiKey == "" {
				apiKey = current.APIKey
			}

			list, err := a.ctrl.LookupModels(cmd.Context(), apiKey)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, m := range list {
				marker := " "
				if m.Name == current.Model {
					marker = "*"
				}
				name := m.DisplayName
				if name == "" {
					name = m.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", marker, m.Name, name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to list models for (defaults to the saved key)")
	return cmd
}

func downloadCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Save the enhanced image of a history entry as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid history id %q", args[0])
			}
			a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ctrl.ShowHistoryEntry(id); err != nil {
				return err
			}
			_, err = a.ctrl.Download(outDir)
			return err
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to save into")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the client config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configFlag); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configFlag)
			}
			if err := config.DefaultClientConfig().Save(configFlag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configFlag)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func formatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
