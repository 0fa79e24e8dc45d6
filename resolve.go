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

// resolve selects the method invoked by a call and infers the type-arguments of generic methods,
// for a type-system with Java-like classes, interfaces, generics, wildcards and boxing.
//
// Resolution runs in up to three phases: strict invocation (subtyping only), loose invocation
// (boxing and unboxing) and variable-arity invocation. The first phase with an applicable method
// selects the most specific of the applicable methods. Type-arguments are inferred by collecting
// bounds on inference-variables, incorporating them to a fixpoint and resolving the variables in
// dependency order.
//
//
// Supported Features:
//
//   * Overloading with boxing, unboxing and variable-arity methods
//   * Generic methods with bounded and F-bounded type-parameters
//   * Wildcard-parameterized receivers, arguments and targets (capture conversion)
//   * Lambdas, method references and conditionals as poly arguments
//   * Nested generic calls inferred together with the enclosing call
//   * Access control for private, package-private, protected and unexported members
//   * Legacy inference (equality checks, minimize/maximize) for older source levels
//
//
// Links:
//
// Overload resolution (JLS 15.12.2): https://docs.oracle.com/javase/specs/jls/se8/html/jls-15.html#jls-15.12.2
//
// Type inference (JLS 18): https://docs.oracle.com/javase/specs/jls/se8/html/jls-18.html
package resolve
