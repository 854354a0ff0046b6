package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/store"
)

var (
	colorDim    = lipgloss.Color("240")
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true).Padding(0, 1)
)

func newProjectsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects in the local database",
	}
	cmd.AddCommand(
		newProjectsListCmd(root),
		newProjectsCreateCmd(root),
		newProjectsExportCmd(root),
		newProjectsImportCmd(root),
		newProjectsDeleteCmd(root),
	)
	return cmd
}

func newProjectsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently modified first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			projects, err := db.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Name, p.LastModified.Local().Format(time.DateTime)})
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Name", "Modified").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t)
			return err
		},
	}
}

func newProjectsCreateCmd(root *rootOptions) *cobra.Command {
	var sample bool
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			p, err := db.CreateProject(ctx, args[0])
			if err != nil {
				return err
			}
			if sample {
				c := &store.Canvas{Scene: document.NewSampleScene(), Properties: document.DefaultProperties()}
				if err := db.SaveCanvas(ctx, p.ID, c); err != nil {
					return err
				}
			}
			loggerFrom(ctx).Info("project created", "id", p.ID, "sample", sample)
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "seed the canvas with the sample scene")
	return cmd
}

func newProjectsExportCmd(root *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a project's canvas as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			c, err := db.LoadCanvas(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outPath != "" {
				return writeJSONFile(outPath, c)
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newProjectsImportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import ID FILE",
		Short: "Replace a project's canvas with a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := readCanvas(args[1])
			if err != nil {
				return err
			}
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SaveCanvas(cmd.Context(), args[0], c); err != nil {
				return err
			}
			loggerFrom(cmd.Context()).Info("canvas imported", "project", args[0],
				"nodes", len(c.Scene.Nodes), "connections", len(c.Scene.Connections), "shapes", len(c.Scene.Shapes))
			return nil
		},
	}
}

func newProjectsDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project and its canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			return db.DeleteProject(cmd.Context(), args[0])
		},
	}
}
