package graphactions

import (
	"context"
	"fmt"

	"github.com/wehubfusion/Daedalus/pkg/dispatch"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

// Create builds one new graph per flattened argument. Names are matched
// case-insensitively against the graph kinds; anything else, including
// non-string values, yields a SPARSE graph.
func Create() dispatch.Action {
	return &dispatch.FuncAction{
		ActionName: NameCreate,
		MinArgs:    1,
		Fn: func(ctx context.Context, strategy iteration.Strategy, args []term.Term, out dispatch.Sink) error {
			for _, name := range term.Flatten(args) {
				out.Add(term.Of(graph.New(kindOf(name))))
			}
			return nil
		},
	}
}

func kindOf(t term.Term) graph.Kind {
	if s, ok := t.Raw().(string); ok {
		return graph.ParseKind(s)
	}
	if t.IsNil() {
		return graph.Sparse
	}
	return graph.ParseKind(fmt.Sprint(t.Raw()))
}
