package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
	"github.com/garyjia/expense-admin/internal/export"
)

func newExpenseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Review and approve a monthly expense",
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an expense, its line items and the action you may take",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Expense.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeJSON(a.stdout, a.session.Expense.State())
		},
	}

	var notes string
	send := &cobra.Command{
		Use:   "send <id>",
		Short: "Send the expense to the next approver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Expense.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			outcome, err := a.session.Expense.Send(cmd.Context(), notes)
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, outcome)
		},
	}
	send.Flags().StringVar(&notes, "notes", "", "Note attached to the status change and the approval action")

	complete := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a received expense as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Expense.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			outcome, err := a.session.Expense.Complete(cmd.Context(), a)
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, outcome)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write an expense and its line items to an xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Expense.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			st := a.session.Expense.State()
			path, err := a.container.Exporter().Write("expense-"+args[0], export.ExpenseSheets(*st.Expense, st.Items)...)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}

	cmd.AddCommand(show, send, complete, exportCmd)
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		page          int
		governorateID int64
		officeID      int64
		status        string
		from, to      string
		toFile        bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Search the monthly expenses you may see",
		RunE: func(cmd *cobra.Command, args []string) error {
			hist := a.session.History
			f := hist.State().Filter
			if governorateID != 0 {
				f.GovernorateID = &governorateID
			}
			if officeID != 0 {
				f.OfficeID = &officeID
			}
			if status != "" {
				s, err := workflow.ParseStatus(status)
				if err != nil {
					return err
				}
				f.Status = &s
			}
			var err error
			if f.StartDate, err = parseDay(from, "--from"); err != nil {
				return err
			}
			if f.EndDate, err = parseDay(to, "--to"); err != nil {
				return err
			}
			if err := hist.SetFilter(cmd.Context(), f); err != nil {
				return err
			}

			result, err := hist.Search(cmd.Context(), page)
			if err != nil {
				return err
			}
			if toFile {
				path, err := a.container.Exporter().Write("expense-history", export.HistorySheet(result))
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			}
			return writeJSON(a.stdout, result)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().Int64Var(&governorateID, "governorate", 0, "Governorate id")
	cmd.Flags().Int64Var(&officeID, "office", 0, "Office id")
	cmd.Flags().StringVar(&status, "status", "", "Status name or number")
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&toFile, "export", false, "Write the page to an xlsx file instead of stdout")
	return cmd
}

func parseDay(v, flag string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(entity.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", flag, err)
	}
	return &d, nil
}
