package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/pulseward/pulseward/internal/campaign"
	"github.com/pulseward/pulseward/internal/store"
	"github.com/spf13/cobra"
)

func newProgramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "program",
		Short: "Manage the program enrollment instant",
	}

	cmd.AddCommand(newProgramStartCmd())
	cmd.AddCommand(newProgramSetCmd())
	cmd.AddCommand(newProgramResetCmd())
	cmd.AddCommand(newProgramStatusCmd())
	return cmd
}

func newProgramStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the program now for all participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			started, err := store.StartProgram(gormDB, "cli")
			if errors.Is(err, store.ErrAlreadyStarted) {
				return fmt.Errorf("program already started; use 'pw program set' to override")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Program started at %s\n", started.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulseward.yaml", "path to Pulseward config file")
	return cmd
}

func newProgramSetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "set <RFC3339-instant>",
		Short: "Override the program start instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.Parse(time.RFC3339, args[0])
			if err != nil {
				return fmt.Errorf("parse instant %q: %w", args[0], err)
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := store.SetProgramStart(gormDB, at, "cli"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Program start set to %s\n", at.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulseward.yaml", "path to Pulseward config file")
	return cmd
}

func newProgramResetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the program start instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := store.ResetProgram(gormDB, "cli"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Program start cleared")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulseward.yaml", "path to Pulseward config file")
	return cmd
}

func newProgramStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the program start instant and current day",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			started, err := store.ProgramStart(gormDB)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if started == nil {
				fmt.Fprintln(out, "Program has not started")
				return nil
			}
			day, err := campaign.ProgramDay(time.Now(), *started, "UTC")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Program started at %s (day %d)\n", started.Format(time.RFC3339), day)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulseward.yaml", "path to Pulseward config file")
	return cmd
}
