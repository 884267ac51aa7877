package term

// anyCollection is satisfied by collection results holding raw values
type anyCollection interface {
	All() []any
}

// termCollection is satisfied by result sinks
type termCollection interface {
	All() []Term
}

// Flatten expands nested lists into one ordered sequence of scalar terms.
// Raw []Term, raw []any and collection values are expanded as well, so the
// output of one action can be fed back as the arguments of another.
// Duplicates and order are preserved; flat input is returned element for element.
func Flatten(args []Term) []Term {
	out := make([]Term, 0, len(args))
	for _, a := range args {
		out = appendFlat(out, a)
	}
	return out
}

func appendFlat(out []Term, t Term) []Term {
	if t.list {
		for _, it := range t.items {
			out = appendFlat(out, it)
		}
		return out
	}

	switch v := t.value.(type) {
	case []Term:
		for _, it := range v {
			out = appendFlat(out, it)
		}
	case []any:
		for _, it := range v {
			out = appendFlat(out, Of(it))
		}
	case termCollection:
		for _, it := range v.All() {
			out = appendFlat(out, it)
		}
	case anyCollection:
		for _, it := range v.All() {
			out = appendFlat(out, Of(it))
		}
	default:
		out = append(out, t)
	}
	return out
}
