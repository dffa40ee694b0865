package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pooled-savings-ledger/internal/domain/membership"
)

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func newGroupCmd(a *app) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage savings groups (local mode)",
	}

	groupCmd.AddCommand(&cobra.Command{
		Use:   "add GROUP_ID NAME",
		Short: "Create or rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("group id", args[0])
			if err != nil {
				return err
			}
			dir, err := a.directoryWriter()
			if err != nil {
				return err
			}
			group := membership.Group{ID: id, Name: args[1]}
			if err := dir.SaveGroup(cmd.Context(), group); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), group)
		},
	})
	return groupCmd
}

func newMemberCmd(a *app) *cobra.Command {
	memberCmd := &cobra.Command{
		Use:   "member",
		Short: "Manage members and memberships (local mode)",
	}

	var email string
	var groupID int64
	addCmd := &cobra.Command{
		Use:   "add MEMBER_ID NAME",
		Short: "Create or update a member, optionally enrolling them in a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("member id", args[0])
			if err != nil {
				return err
			}
			dir, err := a.directoryWriter()
			if err != nil {
				return err
			}
			member := membership.Member{ID: id, Name: args[1], Email: email}
			if err := dir.SaveMember(cmd.Context(), member); err != nil {
				return err
			}
			if groupID > 0 {
				if err := dir.SetMembership(cmd.Context(), groupID, id, true); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), member)
		},
	}
	addCmd.Flags().StringVar(&email, "email", "", "member email")
	addCmd.Flags().Int64Var(&groupID, "group", 0, "group to enroll the member in")

	var leaveGroup int64
	leaveCmd := &cobra.Command{
		Use:   "leave MEMBER_ID",
		Short: "End a membership. Principal stays in the pool until withdrawn.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("member id", args[0])
			if err != nil {
				return err
			}
			dir, err := a.directoryWriter()
			if err != nil {
				return err
			}
			if err := dir.SetMembership(cmd.Context(), leaveGroup, id, false); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"member_id": id, "group_id": leaveGroup, "active": false})
		},
	}
	leaveCmd.Flags().Int64Var(&leaveGroup, "group", 0, "group to leave")
	_ = leaveCmd.MarkFlagRequired("group")

	memberCmd.AddCommand(addCmd, leaveCmd)
	return memberCmd
}
