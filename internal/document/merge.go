package document

// Merge deep-merges overlay into root and returns the result; neither input is
// modified. For every key in overlay: when both sides hold tables the merge
// recurses, otherwise the overlay value replaces the root value outright
// (scalars, arrays and kind mismatches are never combined). Keys present only
// in root survive untouched.
func Merge(root, overlay Value) Value {
	if root.kind != KindMap || overlay.kind != KindMap {
		return overlay
	}
	out := make(map[string]Value, len(root.m)+len(overlay.m))
	for k, v := range root.m {
		out[k] = v
	}
	for k, ov := range overlay.m {
		if rv, ok := out[k]; ok {
			out[k] = Merge(rv, ov)
			continue
		}
		out[k] = ov
	}
	return Map(out)
}
