package explorer

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Dump renders the materialized subtree of root, sentinels included.
func Dump(root Node) string {
	if root == nil {
		return ""
	}
	tree := treeprint.NewWithRoot(dumpLabel(root))
	dumpChildren(tree, root)
	return tree.String()
}

func dumpChildren(branch treeprint.Tree, n Node) {
	for _, child := range n.Children() {
		if child.ChildCount() == 0 {
			branch.AddNode(dumpLabel(child))
			continue
		}
		dumpChildren(branch.AddBranch(dumpLabel(child)), child)
	}
}

func dumpLabel(n Node) string {
	label := n.View().Label
	if label == "" {
		label = n.Key()
	}

	switch {
	case n.Placeholder():
		return fmt.Sprintf("(%s)", label)
	case n.Kind() == KindException:
		return fmt.Sprintf("! %s", label)
	case n.Kind() == KindAction:
		return fmt.Sprintf("> %s", label)
	case !n.Expandable():
		return label
	case n.Expanded():
		return fmt.Sprintf("%s [+%s]", label, n.State())
	default:
		return fmt.Sprintf("%s [-%s]", label, n.State())
	}
}
