package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/fluxdock/internal/flux"
	"github.com/p-blackswan/fluxdock/internal/project"
)

const timeLayout = "2006-01-02 15:04"

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *cli) projectsCmd() *cobra.Command {
	projectsCmd := &cobra.Command{Use: "projects", Short: "Project operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			active, _ := c.app.Dock.Active(ctx)
			tw := c.table()
			fmt.Fprintln(tw, "ID\tNAME\tTASKS\tWINDOWS\tUPDATED\t")
			for _, p := range c.app.Dock.Projects().List(ctx) {
				marker := ""
				if p.ID == active.ID {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s%s\t%s\t%d\t%s\t\n",
					p.ID, p.Name, marker, taskSummary(p.Plan), len(p.Windows), p.UpdatedAt.Format(timeLayout))
			}
			return tw.Flush()
		},
	}

	var planFile string
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan *project.Plan
			if planFile != "" {
				raw, err := readDocument(planFile)
				if err != nil {
					return err
				}
				plan = &project.Plan{}
				if err := json.Unmarshal(raw, plan); err != nil {
					return fmt.Errorf("%s: %w", planFile, err)
				}
			}
			p, err := c.app.Dock.CreateProject(cmd.Context(), args[0], plan, false)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, p.ID)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&planFile, "plan", "p", "", "Plan file (YAML or JSON)")

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.app.Dock.DeleteProject(cmd.Context(), args[0]) {
				return fmt.Errorf("project %s not found", args[0])
			}
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ok, err := c.app.Dock.Projects().Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("project %s not found", args[0])
			}
			return nil
		},
	}

	projectsCmd.AddCommand(listCmd, createCmd, deleteCmd, renameCmd)
	return projectsCmd
}

func taskSummary(plan *project.Plan) string {
	if plan == nil || len(plan.Tasks) == 0 {
		return "-"
	}
	done := 0
	for _, t := range plan.Tasks {
		if t.Done {
			done++
		}
	}
	return strconv.Itoa(done) + "/" + strconv.Itoa(len(plan.Tasks))
}

func (c *cli) windowsCmd() *cobra.Command {
	windowsCmd := &cobra.Command{Use: "windows", Short: "Project window operations"}

	listCmd := &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List a project's windows, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, ok := c.app.Dock.Projects().Get(ctx, args[0]); !ok {
				return fmt.Errorf("project %s not found", args[0])
			}
			tw := c.table()
			fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tUPDATED\t")
			for _, w := range c.app.Dock.Windows().Windows(ctx, args[0]) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", w.ID, w.Type, w.Title, w.UpdatedAt.Format(timeLayout))
			}
			return tw.Flush()
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove PROJECT_ID WINDOW_ID",
		Short: "Remove a window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.app.Dock.Windows().RemoveWindow(cmd.Context(), args[0], args[1]) {
				return fmt.Errorf("window %s not found in project %s", args[1], args[0])
			}
			return nil
		},
	}

	windowsCmd.AddCommand(listCmd, removeCmd)
	return windowsCmd
}

func (c *cli) activityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show recent project activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := c.table()
			fmt.Fprintln(tw, "TIME\tEVENT\tPROJECT\t")
			for _, e := range c.app.Dock.Projects().Activity(cmd.Context()) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t\n", e.Timestamp.Format(timeLayout), e.Type, e.ProjectName)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) launchCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "launch FILE",
		Short: "Launch the windows of a flux bundle file (YAML or JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(args[0])
			if err != nil {
				return err
			}
			bundle, err := flux.Decode(raw)
			if err != nil {
				return err
			}
			start := time.Now()
			n := c.app.Launcher.LaunchFluxProject(cmd.Context(), bundle, prompt)
			fmt.Fprintf(c.out, "%d windows launched in %s\n", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt the bundle was generated from")
	return cmd
}

func (c *cli) openCmd() *cobra.Command {
	var resultID string
	cmd := &cobra.Command{
		Use:   "open APP",
		Short: "Open an app window, optionally seeded from a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Launcher.LaunchAppFromURL(cmd.Context(), args[0], resultID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&resultID, "result", "r", "", "Stored result ID")
	return cmd
}

func (c *cli) docsCmd() *cobra.Command {
	docsCmd := &cobra.Command{Use: "docs", Short: "Document index operations"}

	var prefix string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := c.table()
			fmt.Fprintln(tw, "PATH\tTYPE\tSIZE\tSHARED\t")
			for _, d := range c.app.Docs.List(cmd.Context(), prefix) {
				shared := "-"
				if d.ShareID != "" {
					shared = d.ShareID
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n", d.Path, d.MimeType, d.Size, shared)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVar(&prefix, "prefix", "", "Folder prefix")

	rmFolderCmd := &cobra.Command{
		Use:   "rm-folder PREFIX",
		Short: "Delete every document under a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := c.app.Docs.DeleteFolder(cmd.Context(), args[0])
			fmt.Fprintf(c.out, "%d documents removed\n", n)
			return nil
		},
	}

	docsCmd.AddCommand(listCmd, rmFolderCmd)
	return docsCmd
}

func (c *cli) resultsCmd() *cobra.Command {
	resultsCmd := &cobra.Command{Use: "results", Short: "Stored result operations"}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired and unreadable stored results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n := c.app.Results.Cleanup(cmd.Context())
			fmt.Fprintf(c.out, "%d results removed\n", n)
			return nil
		},
	}

	resultsCmd.AddCommand(cleanupCmd)
	return resultsCmd
}
