package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spec-kit/case-workflow/internal/api/dto"
	"github.com/spec-kit/case-workflow/internal/directory"
	"github.com/spec-kit/case-workflow/internal/domain"
	"github.com/spec-kit/case-workflow/internal/service"
)

// operator reads with authority scope.
var operator = domain.Principal{Role: domain.RoleCoordinatingAuthority}

type caseFlags struct {
	status  string
	office  string
	urgency string
}

func (f caseFlags) query() service.CaseQuery {
	q := service.CaseQuery{
		Office:  strings.TrimSpace(f.office),
		Urgency: domain.Urgency(strings.ToUpper(strings.TrimSpace(f.urgency))),
	}
	if f.status != "" {
		for _, part := range strings.Split(f.status, ",") {
			q.Statuses = append(q.Statuses, domain.CaseStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	return q
}

func (f *caseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "comma separated status filter")
	cmd.Flags().StringVar(&f.office, "office", "", "assigned office filter")
	cmd.Flags().StringVar(&f.urgency, "urgency", "", "urgency filter")
}

func casesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cases", Short: "Inspect cases"}
	cmd.AddCommand(casesListCmd(), casesExportCmd())
	return cmd
}

func casesListCmd() *cobra.Command {
	var (
		f     caseFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCaseService(cmd.Context(), func(ctx context.Context, svc *service.CaseService) error {
				q := f.query()
				q.Limit = limit
				cases, err := svc.List(ctx, operator, q)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					items := make([]dto.CaseSummary, 0, len(cases))
					for i := range cases {
						items = append(items, dto.NewCaseSummary(&cases[i]))
					}
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Reported", "Victim", "Type", "Status", "Office", "Urgency", "Reports"})
				for i := range cases {
					c := &cases[i]
					office := c.AssignedOffice
					if office == "" {
						office = "-"
					}
					tw.AppendRow(table.Row{
						c.ID,
						c.ReportedAt.Format("2006-01-02"),
						c.Victim.Name,
						c.ViolenceType,
						c.Status,
						office,
						c.Urgency,
						fmt.Sprintf("%d/%d", c.FilledReportSlots(), domain.MaxReportSlots),
					})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(cases)})
				tw.Render()
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	return cmd
}

func casesExportCmd() *cobra.Command {
	var (
		f   caseFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write cases and management notes to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCaseService(cmd.Context(), func(ctx context.Context, svc *service.CaseService) error {
				buf, err := svc.Export(ctx, operator, f.query())
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", out)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "cases.xlsx", "output file")
	return cmd
}

func officesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offices",
		Short: "Validate and print the office directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := directory.Load(cfg.Directory.File)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(d)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Recipient", "Addresses"})
			tw.AppendRow(table.Row{"Coordinating authority", strings.Join(d.Coordinating, ", ")})
			tw.AppendRow(table.Row{"Arbitration authority", strings.Join(d.Arbitration, ", ")})
			tw.AppendSeparator()
			for _, o := range d.Offices {
				tw.AppendRow(table.Row{o.Name, strings.Join(o.Emails, ", ")})
			}
			tw.Render()
			return nil
		},
	}
}
