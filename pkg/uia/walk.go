package uia

import "iter"

type walkFrame struct {
	node  Node
	depth int
}

// Walk 从 root 开始深度优先先序遍历实时树（包含 root 本身）
//
// 每一步都重新向系统查询子节点，不会一次性展开整棵树；
// 某个节点的子节点读取失败时跳过该分支。maxDepth <= 0 时使用 MaxWalkDepth。
func Walk(root Node, maxDepth int) iter.Seq[Node] {
	return walk(root, maxDepth, true)
}

// Descendants 与 Walk 相同，但不包含 root
func Descendants(root Node, maxDepth int) iter.Seq[Node] {
	return walk(root, maxDepth, false)
}

func walk(root Node, maxDepth int, includeRoot bool) iter.Seq[Node] {
	return walkPruned(root, maxDepth, includeRoot, nil)
}

// Outermost 返回 root 子树中（不含 root）满足 match 的最外层节点，先序
// 命中节点的子树不再展开，结果互不包含
func Outermost(root Node, maxDepth int, match func(Node) bool) []Node {
	var out []Node
	for n := range walkPruned(root, maxDepth, false, match) {
		if match(n) {
			out = append(out, n)
		}
	}
	return out
}

// walkPruned prune 返回 true 的节点照常产出，但不展开其子节点
func walkPruned(root Node, maxDepth int, includeRoot bool, prune func(Node) bool) iter.Seq[Node] {
	if maxDepth <= 0 {
		maxDepth = MaxWalkDepth
	}
	return func(yield func(Node) bool) {
		if root == nil {
			return
		}
		stack := []walkFrame{{node: root}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if top.depth > 0 || includeRoot {
				if !yield(top.node) {
					return
				}
			}
			if top.depth >= maxDepth {
				continue
			}
			if top.depth > 0 && prune != nil && prune(top.node) {
				continue
			}

			children, err := top.node.Children()
			if err != nil {
				continue
			}
			for i := len(children) - 1; i >= 0; i-- {
				if children[i] != nil {
					stack = append(stack, walkFrame{node: children[i], depth: top.depth + 1})
				}
			}
		}
	}
}

// Walk 遍历元素子树（包含自身）
func (e *Element) Walk() iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		for n := range Walk(e.node, 0) {
			if !yield(e.wrap(n)) {
				return
			}
		}
	}
}
