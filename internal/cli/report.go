package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/pooled-savings-ledger/internal/domain/tax"
)

// loadPayer reads a payer profile such as
//
//	name    = "Community Savings Co-op"
//	tin     = "12-3456789"
//	address = "1 Main St"
func loadPayer(path string) (tax.PayerInfo, error) {
	var payer tax.PayerInfo
	meta, err := toml.DecodeFile(path, &payer)
	if err != nil {
		return tax.PayerInfo{}, fmt.Errorf("failed to read payer profile: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return tax.PayerInfo{}, fmt.Errorf("unknown payer profile key %q", undecoded[0].String())
	}
	if payer.Name == "" {
		return tax.PayerInfo{}, fmt.Errorf("payer profile %s has no name", path)
	}
	return payer, nil
}

func newReportCmd(a *app) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate, finalize and inspect tax reports",
	}

	var memberID, groupID int64
	var year int

	statementCmd := &cobra.Command{
		Use:   "statement",
		Short: "Member statement for one group and tax year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.services.Reports.GenerateStatement(cmd.Context(), memberID, groupID, year)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newReportView(report))
		},
	}
	statementCmd.Flags().Int64Var(&memberID, "member", 0, "member id")
	statementCmd.Flags().Int64Var(&groupID, "group", 0, "group id")
	statementCmd.Flags().IntVar(&year, "year", 0, "tax year")
	for _, name := range []string{"member", "group", "year"} {
		_ = statementCmd.MarkFlagRequired(name)
	}

	var payerPath string
	form1099Cmd := &cobra.Command{
		Use:   "1099",
		Short: "1099-INT for a member across all groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var payer tax.PayerInfo
			if payerPath != "" {
				var err error
				if payer, err = loadPayer(payerPath); err != nil {
					return err
				}
			}
			report, err := a.services.Reports.Generate1099INT(cmd.Context(), memberID, year, payer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newReportView(report))
		},
	}
	form1099Cmd.Flags().Int64Var(&memberID, "member", 0, "member id")
	form1099Cmd.Flags().IntVar(&year, "year", 0, "tax year")
	form1099Cmd.Flags().StringVar(&payerPath, "payer", "", "TOML payer profile overriding the configured payer")
	_ = form1099Cmd.MarkFlagRequired("member")
	_ = form1099Cmd.MarkFlagRequired("year")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Per-group breakdown of a member's tax year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.services.Reports.GenerateSummary(cmd.Context(), memberID, year)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newReportView(report))
		},
	}
	summaryCmd.Flags().Int64Var(&memberID, "member", 0, "member id")
	summaryCmd.Flags().IntVar(&year, "year", 0, "tax year")
	_ = summaryCmd.MarkFlagRequired("member")
	_ = summaryCmd.MarkFlagRequired("year")

	finalizeCmd := &cobra.Command{
		Use:   "finalize REPORT_ID",
		Short: "Freeze a draft report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.services.Reports.FinalizeReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newReportView(report))
		},
	}

	showCmd := &cobra.Command{
		Use:   "show REPORT_ID",
		Short: "Print a stored report and whether its checksum still matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.services.Reports.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newReportView(report))
		},
	}

	reportCmd.AddCommand(statementCmd, form1099Cmd, summaryCmd, finalizeCmd, showCmd)
	return reportCmd
}
