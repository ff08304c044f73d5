package ir

// SimplifyCFG cleans up the graph produced by lowering:
// 1. Redirect edges through empty goto blocks (following chains)
// 2. Fold If and CheckExc terminators whose arms agree
// 3. Remove unreachable blocks
// 4. Renumber blocks in order
func SimplifyCFG(f *Func) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}

	redirects := buildRedirectMap(f)
	applyRedirects(f, redirects)
	foldBranches(f)
	reachable := computeReachability(f)
	compactBlocks(f, reachable)
}

func isTrivialGoto(f *Func, id BlockID) bool {
	if id < 0 || int(id) >= len(f.Blocks) {
		return false
	}
	b := &f.Blocks[id]
	return len(b.Instrs) == 0 && b.Term.Kind == TermGoto
}

// buildRedirectMap maps every empty goto block to the first block down
// its chain that does real work. Cycles of empty blocks stay as they are.
func buildRedirectMap(f *Func) map[BlockID]BlockID {
	redirects := make(map[BlockID]BlockID)
	for i := range f.Blocks {
		b := &f.Blocks[i]
		if !isTrivialGoto(f, b.ID) {
			continue
		}
		target := b.Term.Goto.Target
		seen := map[BlockID]bool{b.ID: true}
		for !seen[target] && isTrivialGoto(f, target) {
			seen[target] = true
			target = f.Blocks[target].Term.Goto.Target
		}
		if seen[target] {
			// пустой цикл: while True: pass
			continue
		}
		redirects[b.ID] = target
	}
	return redirects
}

func applyRedirects(f *Func, redirects map[BlockID]BlockID) {
	if len(redirects) == 0 {
		return
	}
	redirect := func(id BlockID) BlockID {
		if to, ok := redirects[id]; ok {
			return to
		}
		return id
	}
	for i := range f.Blocks {
		f.Blocks[i].Term.remap(redirect)
	}
	f.Entry = redirect(f.Entry)
}

// foldBranches turns an If with identical arms into a goto.
func foldBranches(f *Func) {
	for i := range f.Blocks {
		t := &f.Blocks[i].Term
		if t.Kind == TermIf && t.If.Then == t.If.Else {
			*t = Terminator{Kind: TermGoto, Goto: GotoTerm{Target: t.If.Then}}
		}
	}
}

func computeReachability(f *Func) []bool {
	reachable := make([]bool, len(f.Blocks))
	stack := []BlockID{f.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			continue
		}
		reachable[id] = true
		stack = append(stack, f.Blocks[id].Term.Successors()...)
	}
	return reachable
}

func compactBlocks(f *Func, reachable []bool) {
	count := 0
	for _, r := range reachable {
		if r {
			count++
		}
	}
	if count == len(f.Blocks) {
		for i := range f.Blocks {
			f.Blocks[i].ID = BlockID(i) //nolint:gosec // bounded by the block count
		}
		return
	}

	oldToNew := make(map[BlockID]BlockID, count)
	blocks := make([]Block, 0, count)
	for i, keep := range reachable {
		if keep {
			oldToNew[BlockID(i)] = BlockID(len(blocks)) //nolint:gosec // bounded by the block count
			blocks = append(blocks, f.Blocks[i])
		}
	}
	remap := func(id BlockID) BlockID {
		if to, ok := oldToNew[id]; ok {
			return to
		}
		return id
	}
	for i := range blocks {
		blocks[i].ID = BlockID(i) //nolint:gosec // bounded by the block count
		blocks[i].Term.remap(remap)
	}
	f.Blocks = blocks
	f.Entry = remap(f.Entry)
}
