package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/grove/internal/cli"
	"github.com/bnema/grove/pkg/explorer"
)

var (
	dumpDepth   int
	dumpAll     bool
	dumpTimeout time.Duration
)

var dumpCmd = &cobra.Command{
	Use:   "dump [path]",
	Short: "Print the tree without opening the explorer",
	Long: `Load a directory tree through the explorer engine and print it.

Placeholders are printed in parentheses and failures are prefixed with "!",
which makes dump handy for checking what the explorer would show.

Examples:
  grove dump                 # Root and its children
  grove dump -d 3 ~/src      # Three levels of ~/src
  grove dump --all           # Follow every page instead of stopping at "load more"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().IntVarP(&dumpDepth, "depth", "d", 1, "number of levels to expand")
	dumpCmd.Flags().BoolVarP(&dumpAll, "all", "a", false, "load every page of each directory")
	dumpCmd.Flags().DurationVar(&dumpTimeout, "timeout", time.Minute, "give up after this long")
}

func runDump(cmd *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	opts := cli.SessionOptions{}
	if len(args) > 0 {
		opts.Root = args[0]
	}
	session, err := app.OpenSession(opts)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close(context.Background()) }()

	ctx, cancel := context.WithTimeout(session.Ctx(), dumpTimeout)
	defer cancel()

	if err := expandLevels(ctx, session, dumpDepth, dumpAll); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), explorer.Dump(session.Controller.Root()))
	return nil
}

// expandLevels expands the tree breadth first, depth levels deep.
func expandLevels(ctx context.Context, s *cli.Session, depth int, allPages bool) error {
	c := s.Controller
	level := []explorer.Node{c.Root()}

	for d := 0; d < depth && len(level) > 0; d++ {
		for _, n := range level {
			if err := c.Expand(n); err != nil {
				return err
			}
		}
		if err := s.Settle(ctx); err != nil {
			return fmt.Errorf("waiting for level %d: %w", d, err)
		}
		if allPages {
			if err := loadAllPages(ctx, s, level); err != nil {
				return err
			}
		}

		var next []explorer.Node
		for _, n := range level {
			for _, child := range n.Children() {
				if child.Kind() == explorer.KindResource {
					next = append(next, child)
				}
			}
		}
		level = next
	}
	return nil
}

// loadAllPages follows the page cursor of every node until it runs out. A
// node whose page load adds nothing, such as a failed one, is left alone.
func loadAllPages(ctx context.Context, s *cli.Session, nodes []explorer.Node) error {
	pending := nodes
	for len(pending) > 0 {
		before := make(map[explorer.NodeID]int, len(pending))
		for _, n := range pending {
			if !n.HasMore() {
				continue
			}
			if err := s.Controller.LoadMore(n); err != nil {
				return err
			}
			before[n.ID()] = resources(n)
		}
		if err := s.Settle(ctx); err != nil {
			return err
		}

		var more []explorer.Node
		for _, n := range pending {
			if count, ok := before[n.ID()]; ok && resources(n) > count {
				more = append(more, n)
			}
		}
		pending = more
	}
	return nil
}

func resources(n explorer.Node) int {
	count := 0
	for _, child := range n.Children() {
		switch child.Kind() {
		case explorer.KindResource, explorer.KindGenericResource:
			count++
		}
	}
	return count
}
