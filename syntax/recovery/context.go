// Package recovery decides where a recursive-descent parser may resume after
// a grammar failure.
//
// Productions push a Frame when they start, call Engine.Recover when one of
// their sub-parses fails, and pop the frame on every exit path. The engine
// consults the static Table for the innermost frame, scans forward for a
// synchronization point, and either moves the cursor there or hands the
// failure back so an enclosing production can try one level up. Every
// position may be retried at most MaxAttempts times, which bounds the total
// recovery work by the length of the token stream.
package recovery

import "errors"

// ErrUnbalancedPop is the panic value raised when a frame is popped from an
// empty stack. It signals a push/pop mismatch in a production, never a
// malformed document.
var ErrUnbalancedPop = errors.New("recovery: pop from empty context stack")

// Kind names the grammar production a frame belongs to.
type Kind int

const (
	ContainerMembers Kind = iota
	ContainerField
	FnDecl
	VarDecl
	TestDecl
	BlockStmt
	IfStmt
	WhileStmt
	ForStmt
	SwitchExpr
	Expr
	TypeExpr
)

var kindNames = map[Kind]string{
	ContainerMembers: "container_members",
	ContainerField:   "container_field",
	FnDecl:           "fn_decl",
	VarDecl:          "var_decl",
	TestDecl:         "test_decl",
	BlockStmt:        "block_stmt",
	IfStmt:           "if_stmt",
	WhileStmt:        "while_stmt",
	ForStmt:          "for_stmt",
	SwitchExpr:       "switch_expr",
	Expr:             "expr",
	TypeExpr:         "type_expr",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

type Frame struct {
	Kind   Kind
	Start  int // token index at push time
	Indent int // line indentation of the start token

	// Parent is the kind of the enclosing frame; it is only meaningful when
	// HasParent is true.
	Parent    Kind
	HasParent bool

	// NestingLevel counts the frames of the same kind that were already on
	// the stack when this one was pushed.
	NestingLevel int
}

// Stack is the last-in-first-out record of active productions.
type Stack struct {
	frames []Frame
}

func (s *Stack) Push(kind Kind, start, indent int) Frame {
	f := Frame{
		Kind:         kind,
		Start:        start,
		Indent:       indent,
		NestingLevel: s.NestingLevel(kind),
	}
	if top, ok := s.Top(); ok {
		f.Parent = top.Kind
		f.HasParent = true
	}
	s.frames = append(s.frames, f)
	return f
}

func (s *Stack) Pop() Frame {
	if len(s.frames) == 0 {
		panic(ErrUnbalancedPop)
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// NestingLevel returns the number of frames of kind currently on the stack.
func (s *Stack) NestingLevel(kind Kind) int {
	n := 0
	for _, f := range s.frames {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Stack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *Stack) Len() int {
	return len(s.frames)
}

// Kinds returns the frame kinds from the outermost to the innermost.
func (s *Stack) Kinds() []Kind {
	kinds := make([]Kind, len(s.frames))
	for i, f := range s.frames {
		kinds[i] = f.Kind
	}
	return kinds
}
