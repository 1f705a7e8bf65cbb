package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dori/dossier/internal/model"
	"github.com/spf13/cobra"
)

func newAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task and create its project folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.Tasks.Add(strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added #%d: %s\n", a.Tasks.Len(), t.Title)
			if t.HasFolder() {
				fmt.Fprintf(out, "  folder: %s\n", t.ProjectFolder)
			} else {
				fmt.Fprintln(out, warnStyle.Render("  warning: no project folder could be created"))
			}
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			all := a.Tasks.Tasks()
			if len(all) == 0 {
				fmt.Fprintln(out, "No tasks yet. Add one with: dossier add <title>")
				return nil
			}
			for i, t := range all {
				if pending && t.Completed {
					continue
				}
				fmt.Fprintln(out, listLine(i, t))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "Hide completed tasks")
	return cmd
}

func listLine(index int, t model.Task) string {
	title := t.DisplayTitle()
	if t.Completed {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s. %s %s", numberStyle.Render(fmt.Sprint(index+1)), checkbox(t.Completed), title)
	if n := t.AttachmentCount(); n > 0 {
		line += mutedStyle.Render(fmt.Sprintf("  (%d attached)", n))
	}
	return line
}

func newDoneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <n>",
		Short: "Toggle a task's completed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			done, err := a.Tasks.ToggleCompleted(index)
			if err != nil {
				return err
			}
			state := "pending"
			if done {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d marked %s\n", index+1, state)
			return nil
		},
	}
}

func newRenameCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <n> <title>",
		Short: "Change a task's title, keeping its date",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Tasks.Rename(index, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			t, _ := a.Tasks.Get(index)
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed #%d: %s\n", index+1, t.Title)
			return nil
		},
	}
}

func newNoteCmd(opts *options) *cobra.Command {
	var clearNote, stdin bool

	cmd := &cobra.Command{
		Use:   "note <n> [text]",
		Short: "Show or replace a task's note",
		Long: `Without text the current note is printed. Use --stdin to read a
multi-line note, or --clear to remove it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			var note string
			switch {
			case clearNote:
			case stdin:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				note = string(data)
			case len(args) > 1:
				note = strings.Join(args[1:], " ")
			default:
				t, err := a.Tasks.Get(index)
				if err != nil {
					return err
				}
				if t.Note == "" {
					fmt.Fprintln(out, mutedStyle.Render("(no note)"))
				} else {
					fmt.Fprintln(out, t.Note)
				}
				return nil
			}

			if err := a.Tasks.SetNote(index, note); err != nil {
				return err
			}
			fmt.Fprintf(out, "Note saved for #%d\n", index+1)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearNote, "clear", false, "Remove the note")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Read the note from standard input")
	return cmd
}

func newRemoveCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <n>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its project folder",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.Tasks.Get(index)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !yes {
				prompt := fmt.Sprintf("Delete #%d %q", index+1, t.DisplayTitle())
				if t.HasFolder() {
					prompt += " and everything in " + t.ProjectFolder
				}
				fmt.Fprint(out, prompt+"? [y/N] ")
				if !confirmed(cmd.InOrStdin()) {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			d, err := a.Tasks.Delete(index)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted #%d: %s\n", index+1, d.Task.DisplayTitle())
			if d.FolderErr != nil {
				fmt.Fprintln(out, warnStyle.Render("  warning: project folder left on disk: "+d.Task.ProjectFolder))
				fmt.Fprintln(out, warnStyle.Render("  reason: "+d.FolderErr.Error()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func confirmed(r io.Reader) bool {
	line, _ := bufio.NewReader(r).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newFindCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy search task titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			matches := a.Tasks.Search(strings.Join(args, " "))
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matching tasks.")
				return nil
			}
			for _, m := range matches {
				fmt.Fprintln(out, listLine(m.Index, m.Task))
			}
			return nil
		},
	}
}
