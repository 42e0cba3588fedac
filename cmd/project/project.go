// Package project provides the project hierarchy commands
package project

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/hierarchy"
	"github.com/tphakala/aftermidnight/internal/runtime"
)

var orgStyle = lipgloss.NewStyle().Bold(true)

// Command creates the project parent command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, move and inspect projects",
	}

	cmd.AddCommand(
		createCommand(settings),
		renameCommand(settings),
		moveCommand(settings),
		deleteCommand(settings),
		listCommand(settings),
		treeCommand(settings),
		pathCommand(settings),
	)

	return cmd
}

// ParseID parses a project id argument
func ParseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid project id %q", arg)
	}
	return uint(id), nil
}

// parentFlag returns the --parent value, nil when the flag was not given
func parentFlag(cmd *cobra.Command, parent uint) *uint {
	if !cmd.Flags().Changed("parent") {
		return nil
	}
	return &parent
}

func createCommand(settings *conf.Settings) *cobra.Command {
	var (
		parent uint
		org    bool
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Long:  "Create a project at the root level or under --parent. Organization projects group other projects and cannot hold images.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				id, err := s.Projects.Create(cmd.Context(), args[0], parentFlag(cmd, parent), org)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %d %q\n", id, strings.TrimSpace(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().UintVar(&parent, "parent", 0, "ID of the parent project")
	cmd.Flags().BoolVar(&org, "org", false, "Create an organization project")

	return cmd
}

func renameCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseID(args[0])
			if err != nil {
				return err
			}
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				if err := s.Projects.Rename(cmd.Context(), id, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed project %d to %q\n", id, strings.TrimSpace(args[1]))
				return nil
			})
		},
	}
}

func moveCommand(settings *conf.Settings) *cobra.Command {
	var (
		parent uint
		root   bool
	)

	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a project under another project or to the root level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseID(args[0])
			if err != nil {
				return err
			}
			newParent := parentFlag(cmd, parent)
			if newParent == nil && !root {
				return fmt.Errorf("either --parent or --root is required")
			}

			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				if err := s.Projects.Reparent(cmd.Context(), id, newParent); err != nil {
					return err
				}
				if newParent == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Moved project %d to the root level\n", id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Moved project %d under project %d\n", id, *newParent)
				}
				return nil
			})
		},
	}

	cmd.Flags().UintVar(&parent, "parent", 0, "ID of the new parent project")
	cmd.Flags().BoolVar(&root, "root", false, "Move the project to the root level")
	cmd.MarkFlagsMutuallyExclusive("parent", "root")

	return cmd
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project and its images",
		Long:  "Delete a project and its images. Projects with children are only deleted with --cascade, which removes the whole subtree.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseID(args[0])
			if err != nil {
				return err
			}
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				res, err := s.Projects.Delete(cmd.Context(), id, cascade)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d project(s) and %d image(s)\n", res.Projects, res.Images)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "Also delete all descendant projects")

	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var parent uint

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List root projects or the children of --parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				children, err := s.Projects.ListChildren(cmd.Context(), parentFlag(cmd, parent))
				if err != nil {
					return err
				}
				if len(children) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects")
					return nil
				}
				for i := range children {
					fmt.Fprintf(cmd.OutOrStdout(), "%5d  %s\n", children[i].ID, label(&children[i]))
				}
				return nil
			})
		},
	}

	cmd.Flags().UintVar(&parent, "parent", 0, "ID of the parent project")

	return cmd
}

func treeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the whole project forest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				forest, err := s.Projects.Tree(cmd.Context())
				if err != nil {
					return err
				}
				if len(forest) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects")
					return nil
				}

				name := settings.Main.Name
				if name == "" {
					name = "catalog"
				}
				t := tree.Root(name)
				var projects, depth int
				var images int64
				for _, n := range forest {
					t.Child(branch(n))
					n.Walk(func(node *hierarchy.Node, d int) {
						projects++
						images += node.ImageCount
						depth = max(depth, d+1)
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				fmt.Fprintf(cmd.OutOrStdout(), "%d project(s), %d image(s), %d level(s)\n", projects, images, depth)
				return nil
			})
		},
	}
}

// branch renders n and its subtree
func branch(n *hierarchy.Node) any {
	text := fmt.Sprintf("%s [%d]", label(&n.Project), n.Project.ID)
	if !n.Project.IsOrganization {
		text += fmt.Sprintf(" %d image(s)", n.ImageCount)
	}
	if len(n.Children) == 0 {
		return text
	}

	t := tree.Root(text)
	for _, c := range n.Children {
		t.Child(branch(c))
	}
	return t
}

func pathCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "path ID",
		Short: "Show the chain of parents of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseID(args[0])
			if err != nil {
				return err
			}
			return runtime.With(cmd.Context(), settings, func(s *runtime.Services) error {
				p, err := s.Projects.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				chain, err := s.Projects.AncestorsOf(cmd.Context(), id)
				if err != nil {
					return err
				}

				names := make([]string, 0, len(chain)+1)
				for i := len(chain) - 1; i >= 0; i-- {
					names = append(names, chain[i].Name)
				}
				names = append(names, p.Name)
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, " / "))
				return nil
			})
		},
	}
}

func label(p *entities.Project) string {
	if p.IsOrganization {
		return orgStyle.Render(p.Name) + " (organization)"
	}
	return p.Name
}
