package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pulseward/pulseward/internal/campaign"
	"github.com/pulseward/pulseward/internal/store"
	"github.com/spf13/cobra"
)

func newParticipantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants",
		Short: "Manage program participants",
	}

	cmd.AddCommand(newParticipantsListCmd())
	cmd.AddCommand(newParticipantsDeactivateCmd())
	return cmd
}

func newParticipantsListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			participants, err := store.AllParticipants(gormDB)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(participants) == 0 {
				fmt.Fprintln(out, "No participants enrolled")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPLATFORM ID\tNAME\tDAY\tACTIVE\tENROLLED")
			now := time.Now()
			for _, p := range participants {
				name := p.FullName
				if name == "" {
					name = p.UserName
				}
				day := "-"
				enrolled := "-"
				if p.EnrolledAt != nil {
					if d, err := campaign.ProgramDay(now, *p.EnrolledAt, p.Timezone); err == nil {
						day = fmt.Sprintf("%d", d)
					}
					enrolled = p.EnrolledAt.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\n",
					p.ID, p.PlatformUserID, name, day, p.Active, enrolled)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulseward.yaml", "path to Pulseward config file")
	return cmd
}

func newParticipantsDeactivateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "deactivate <platform-user-id>",
		Short: "Stop scheduled prompts for a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := store.Deactivate(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Participant %s deactivated\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulseward.yaml", "path to Pulseward config file")
	return cmd
}
