package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/expense-admin/internal/attendance"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/export"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Search, register and update user accounts",
	}

	reference := &cobra.Command{
		Use:   "reference",
		Short: "Show the governorates and roles used by the user forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Users.LoadReferenceData(cmd.Context()); err != nil {
				return err
			}
			st := a.session.Users.State()
			return writeJSON(a.stdout, map[string]any{"governorates": st.Governorates, "roles": st.Roles})
		},
	}

	offices := &cobra.Command{
		Use:   "offices <governorate-id>",
		Short: "List the offices of a governorate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := entity.FlexString(args[0]).Int64()
			if err != nil {
				return fmt.Errorf("invalid governorate id: %w", err)
			}
			list, err := a.session.Users.OfficesOf(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, list)
		},
	}

	var (
		filter        entity.ProfileFilter
		governorateID int64
		officeID      int64
		page          int
		pageSize      int
	)
	search := &cobra.Command{
		Use:   "search",
		Short: "Search user profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if governorateID != 0 {
				filter.GovernorateID = &governorateID
			}
			if officeID != 0 {
				filter.OfficeID = &officeID
			}
			result, err := a.session.Users.Search(cmd.Context(), filter, page, pageSize)
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, result)
		},
	}
	search.Flags().StringVar(&filter.FullName, "name", "", "Full name contains")
	search.Flags().StringSliceVar(&filter.Roles, "role", nil, "Role (repeatable)")
	search.Flags().Int64Var(&governorateID, "governorate", 0, "Governorate id")
	search.Flags().Int64Var(&officeID, "office", 0, "Office id")
	search.Flags().IntVar(&page, "page", 1, "Page number")
	search.Flags().IntVar(&pageSize, "page-size", 0, "Page size (default 10)")

	var reg entity.RegisterRequest
	register := &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session.Users.Register(cmd.Context(), reg)
		},
	}
	register.Flags().StringVar(&reg.UserName, "username", "", "Login name")
	register.Flags().StringVar(&reg.Password, "password", "", "Password (at least 6 characters)")
	register.Flags().StringVar(&reg.FullName, "full-name", "", "Full name")
	register.Flags().IntVar(&reg.Position, "position", 0, "Position number")
	register.Flags().Int64Var(&reg.OfficeID, "office", 0, "Office id")
	register.Flags().Int64Var(&reg.GovernorateID, "governorate", 0, "Governorate id")
	register.Flags().StringSliceVar(&reg.Roles, "role", nil, "Role (repeatable)")

	var (
		upd      entity.UpdateAccountRequest
		position string
	)
	update := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd.UserID = entity.ID(args[0])
			upd.Position = entity.FlexString(position)
			return a.session.Users.Update(cmd.Context(), upd)
		},
	}
	update.Flags().StringVar(&upd.UserName, "username", "", "Login name")
	update.Flags().StringVar(&upd.FullName, "full-name", "", "Full name")
	update.Flags().StringVar(&position, "position", "", "Position number")
	update.Flags().Int64Var(&upd.OfficeID, "office", 0, "Office id")
	update.Flags().Int64Var(&upd.GovernorateID, "governorate", 0, "Governorate id")
	update.Flags().StringSliceVar(&upd.Roles, "role", nil, "Role (repeatable)")
	update.Flags().StringVar(&upd.NewPassword, "new-password", "", "New password, left unchanged when empty")

	cmd.AddCommand(reference, offices, search, register, update)
	return cmd
}

func newAttendanceCmd(a *app) *cobra.Command {
	var (
		day           string
		hours         int
		governorateID int64
		toFile        bool
	)

	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "List offices that submitted no attendance",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := attendance.Query{WorkingHours: entity.WorkingHours(hours)}
			if day != "" {
				d, err := time.Parse(entity.DateLayout, day)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				q.Date = &d
			}
			if governorateID != 0 {
				q.GovernorateID = &governorateID
			}

			offices, err := a.session.Attendance.Unavailable(cmd.Context(), q)
			if err != nil {
				return err
			}
			if toFile {
				path, err := a.container.Exporter().Write("unavailable-offices", export.OfficesSheet(*q.Date, offices))
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			}
			return writeJSON(a.stdout, offices)
		},
	}

	cmd.Flags().StringVar(&day, "date", "", "Day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&hours, "hours", 0, "Shift: 1 morning, 2 evening, 3 whole day (default)")
	cmd.Flags().Int64Var(&governorateID, "governorate", 0, "Governorate id, all when unset")
	cmd.Flags().BoolVar(&toFile, "export", false, "Write the result to an xlsx file instead of stdout")
	return cmd
}
