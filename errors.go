// The MIT License (MIT)
//
// Copyright (c) 2019 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package resolve

import (
	"errors"
	"strconv"
	"strings"

	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/infer"
	"github.com/wdamron/resolve/types"
)

// FailureKind classifies why a candidate is not applicable.
type FailureKind uint8

const (
	// The number of arguments differs from the number of formal parameters.
	ArityMismatch FailureKind = iota
	// An argument is not compatible with its formal parameter.
	ArgMismatch
	// A trailing argument is not compatible with the variable-arity element type.
	VarargsMismatch
	// The variable-arity element type is not accessible from the call site.
	InaccessibleVarargs
	// Explicit type-arguments do not match the method's type-parameters.
	ExplicitTypeArgs
	// The bounds inferred for the method's type-parameters are inconsistent.
	InferenceFailure
)

var failureKindNames = [...]string{
	ArityMismatch:       "ArityMismatch",
	ArgMismatch:         "ArgMismatch",
	VarargsMismatch:     "VarargsMismatch",
	InaccessibleVarargs: "InaccessibleVarargs",
	ExplicitTypeArgs:    "ExplicitTypeArgs",
	InferenceFailure:    "InferenceFailure",
}

func (k FailureKind) String() string { return failureKindNames[k] }

// Failure is the reason a candidate was dropped. Failures are values: they are recorded in the
// candidate log and never abort the scan of the remaining candidates.
type Failure struct {
	Kind FailureKind
	// Arg is the index of the offending argument, or -1.
	Arg int
	// Actual and Formal are the types which could not be reconciled, when known.
	Actual, Formal types.Type
	// Cause is the inference failure for InferenceFailure, or the failure of a nested call.
	Cause error

	msg string
}

func (f *Failure) Error() string { return f.msg }

func (f *Failure) Unwrap() error { return f.Cause }

func (r *Resolver) arityFailure(required, found int) *Failure {
	return &Failure{
		Kind: ArityMismatch,
		Arg:  -1,
		msg:  "Actual and formal argument lists differ in length; required " + strconv.Itoa(required) + ", found " + strconv.Itoa(found),
	}
}

func (r *Resolver) argFailure(kind FailureKind, i int, arg ast.Expr, formal types.Type, cause error) *Failure {
	var sb strings.Builder
	if kind == VarargsMismatch {
		sb.WriteString("Varargs mismatch; ")
	} else {
		sb.WriteString("Argument mismatch; ")
	}
	sb.WriteString(r.argString(arg))
	sb.WriteString(" cannot be converted to ")
	sb.WriteString(types.TypeString(r.Table, formal))
	if cause != nil {
		sb.WriteString(" (")
		sb.WriteString(cause.Error())
		sb.WriteByte(')')
	}
	return &Failure{Kind: kind, Arg: i, Actual: arg.Type(), Formal: formal, Cause: cause, msg: sb.String()}
}

func (r *Resolver) varargsAccessFailure(elem types.Type) *Failure {
	return &Failure{
		Kind:   InaccessibleVarargs,
		Arg:    -1,
		Formal: elem,
		msg:    "Varargs element type " + types.TypeString(r.Table, elem) + " is not accessible",
	}
}

func (r *Resolver) typeArgsFailure(msg string) *Failure {
	return &Failure{Kind: ExplicitTypeArgs, Arg: -1, msg: msg}
}

func inferenceFailure(err error) *Failure {
	return &Failure{Kind: InferenceFailure, Arg: -1, Cause: err, msg: "Inference failed; " + err.Error()}
}

// ErrorKind classifies terminal resolution errors.
type ErrorKind uint8

// Resolution errors, ordered by increasing specificity up to InapplicableMultiple. When several
// phases or candidates fail, the most specific error is reported.
const (
	NotFound ErrorKind = iota
	AccessDenied
	Inapplicable
	InapplicableMultiple
	Ambiguous
	InferenceFailed
	// An instance method was selected for an unqualified call in a static context.
	StaticContext
)

var errorKindNames = [...]string{
	NotFound:             "NotFound",
	AccessDenied:         "AccessDenied",
	Inapplicable:         "Inapplicable",
	InapplicableMultiple: "InapplicableMultiple",
	Ambiguous:            "Ambiguous",
	InferenceFailed:      "InferenceFailed",
	StaticContext:        "StaticContext",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// Diagnostic is a structured report of a resolution error: a message key and its positional
// arguments. Rendering is left to the caller.
type Diagnostic struct {
	Key  string
	Args []interface{}
}

// ResolveError is the terminal error of a call which could not be resolved.
type ResolveError struct {
	Kind ErrorKind
	Name string
	// Method is the inaccessible, inapplicable or uninstantiable method, or NoMethod.
	Method types.MethodID
	// Candidates are the inapplicable candidates (with their failures), or the ambiguous ones.
	Candidates []Candidate
	// Cause is the *Failure of a single inapplicable candidate, or the *infer.Error of a method
	// whose instantiation failed.
	Cause error

	msg  string
	diag Diagnostic
}

func (e *ResolveError) Error() string { return e.msg }

func (e *ResolveError) Unwrap() error { return e.Cause }

// Diagnostic returns the structured report of the error.
func (e *ResolveError) Diagnostic() Diagnostic { return e.diag }

// InferenceError returns the inference failure underlying the error, if any.
func (e *ResolveError) InferenceError() *infer.Error {
	var ierr *infer.Error
	if errors.As(e, &ierr) {
		return ierr
	}
	return nil
}

// callName returns what a call invokes, for messages: "method" and its name, or "constructor"
// and the class name.
func (r *Resolver) callName(call *Call) (kind, name string) {
	if call.Name != types.ConstructorName {
		return "method", call.Name
	}
	if ct, ok := call.Receiver.(*types.ClassType); ok {
		return "constructor", r.Table.Class(ct.Sym).Name
	}
	return "constructor", call.Name
}

func (r *Resolver) notFoundError(call *Call, site types.Type) *ResolveError {
	kind, name := r.callName(call)
	location := "<unqualified>"
	if site != nil {
		location = types.TypeString(r.Table, site)
	}
	args := r.argsString(call.Args)
	return &ResolveError{
		Kind:   NotFound,
		Name:   call.Name,
		Method: types.NoMethod,
		msg:    "Cannot find " + kind + " " + name + "(" + args + ") in " + location,
		diag:   Diagnostic{Key: "cant.resolve.location.args", Args: []interface{}{call.Name, types.TypeListString(r.Table, call.TypeArgs), args, location}},
	}
}

func (r *Resolver) accessError(call *Call, m types.MethodID, reason string) *ResolveError {
	meth := r.Table.Method(m)
	owner := r.Table.Class(meth.Owner)
	return &ResolveError{
		Kind:   AccessDenied,
		Name:   call.Name,
		Method: m,
		msg:    r.Table.MethodString(m) + " is not accessible: " + reason,
		diag:   Diagnostic{Key: "report.access", Args: []interface{}{r.Table.MethodString(m), reason, owner.QualifiedName()}},
	}
}

func (r *Resolver) staticContextError(call *Call, m types.MethodID) *ResolveError {
	return &ResolveError{
		Kind:   StaticContext,
		Name:   call.Name,
		Method: m,
		msg:    "Non-static method " + r.Table.MethodString(m) + " cannot be referenced from a static context",
		diag:   Diagnostic{Key: "non-static.cant.be.ref", Args: []interface{}{"method", r.Table.MethodString(m)}},
	}
}

func (r *Resolver) inapplicableError(call *Call, cands []Candidate) *ResolveError {
	args := r.argsString(call.Args)
	if len(cands) == 1 {
		c := cands[0]
		return &ResolveError{
			Kind:       Inapplicable,
			Name:       call.Name,
			Method:     c.Method,
			Candidates: cands,
			Cause:      c.Failure,
			msg:        "Method " + r.Table.MethodString(c.Method) + " cannot be applied to (" + args + "): " + c.Failure.Error(),
			diag:       Diagnostic{Key: "cant.apply.symbol", Args: []interface{}{r.Table.MethodString(c.Method), args, c.Failure.Error()}},
		}
	}
	reasons := make([]string, len(cands))
	var sb strings.Builder
	kind, name := r.callName(call)
	sb.WriteString("No suitable " + kind + " found for " + name + "(" + args + ")")
	for i, c := range cands {
		reasons[i] = r.Table.MethodString(c.Method) + " is not applicable: " + c.Failure.Error()
		sb.WriteString("\n    ")
		sb.WriteString(reasons[i])
	}
	return &ResolveError{
		Kind:       InapplicableMultiple,
		Name:       call.Name,
		Method:     types.NoMethod,
		Candidates: cands,
		msg:        sb.String(),
		diag:       Diagnostic{Key: "cant.apply.symbols", Args: []interface{}{call.Name, args, reasons}},
	}
}

func (r *Resolver) ambiguityError(call *Call, cands []Candidate) *ResolveError {
	_, name := r.callName(call)
	names := make([]string, len(cands))
	diagArgs := []interface{}{call.Name}
	for i, c := range cands {
		names[i] = r.Table.MethodString(c.Method)
		diagArgs = append(diagArgs, names[i])
	}
	return &ResolveError{
		Kind:       Ambiguous,
		Name:       call.Name,
		Method:     types.NoMethod,
		Candidates: cands,
		msg:        "Reference to " + name + " is ambiguous: " + strings.Join(names, " and "),
		diag:       Diagnostic{Key: "ref.ambiguous", Args: diagArgs},
	}
}

var inferenceKeys = [...]string{
	infer.NoConformingInstance:    "infer.no.conforming.instance.exists",
	infer.IncompatibleBounds:      "incompatible.bounds",
	infer.IncompatibleEqBounds:    "incompatible.eq.bounds",
	infer.IncompatibleUpperBounds: "incompatible.upper.bounds",
	infer.CyclicInferenceExceeded: "cyclic.inference",
}

func (r *Resolver) inferenceError(call *Call, m types.MethodID, err error) *ResolveError {
	key := "cant.apply.symbol"
	var ierr *infer.Error
	if errors.As(err, &ierr) {
		key = inferenceKeys[ierr.Kind]
	}
	return &ResolveError{
		Kind:   InferenceFailed,
		Name:   call.Name,
		Method: m,
		Cause:  err,
		msg:    "Cannot instantiate " + r.Table.MethodString(m) + ": " + err.Error(),
		diag:   Diagnostic{Key: key, Args: []interface{}{r.Table.MethodString(m), r.argsString(call.Args), err.Error()}},
	}
}

// argString prints the type of a standalone argument, or the expression of a poly argument.
func (r *Resolver) argString(arg ast.Expr) string {
	if t := arg.Type(); t != nil {
		return types.TypeString(r.Table, t)
	}
	return ast.ExprString(r.Table, arg)
}

func (r *Resolver) argsString(args []ast.Expr) string {
	ss := make([]string, len(args))
	for i, arg := range args {
		ss[i] = r.argString(arg)
	}
	return strings.Join(ss, ", ")
}
