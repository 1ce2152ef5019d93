package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/expense-admin/internal/export"
)

func newLOVCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lov",
		Short: "List-of-values admin: governorates, offices, expense types and more",
	}

	menu := &cobra.Command{
		Use:   "menu",
		Short: "Show the entity paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(a.stdout, a.session.LOV.Menu())
		},
	}

	list := &cobra.Command{
		Use:   "list <path>",
		Short: "List the records of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.LOV.SelectEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeTable(a.stdout, a.session.LOV.Table())
		},
	}

	var sets []string
	create := &cobra.Command{
		Use:   "create <path>",
		Short: "Add a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			if err := a.session.LOV.SelectEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := a.session.LOV.Create(cmd.Context(), values); err != nil {
				return err
			}
			return writeTable(a.stdout, a.session.LOV.Table())
		},
	}
	create.Flags().StringArrayVar(&sets, "set", nil, "Form value as name=value (repeatable)")

	var updateSets []string
	update := &cobra.Command{
		Use:   "update <path> <id>",
		Short: "Edit a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(updateSets)
			if err != nil {
				return err
			}
			if err := a.session.LOV.SelectEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := a.session.LOV.Update(cmd.Context(), args[1], values); err != nil {
				return err
			}
			return writeTable(a.stdout, a.session.LOV.Table())
		},
	}
	update.Flags().StringArrayVar(&updateSets, "set", nil, "Form value as name=value (repeatable)")

	remove := &cobra.Command{
		Use:   "delete <path> <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.LOV.SelectEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.session.LOV.Remove(cmd.Context(), args[1], a)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Write the records of an entity to an xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lov := a.session.LOV
			if err := lov.SelectEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			label := lov.Snapshot().Label
			path, err := a.container.Exporter().Write(label, export.TableSheet(label, lov.Table()))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}

	cmd.AddCommand(menu, list, create, update, remove, exportCmd)
	return cmd
}
