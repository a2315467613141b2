// Copyright 2015 The Serulian Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import "github.com/dennwc/webidl2js/ast"

// nodeStack tracks the nodes under construction; errors attach to the top one.
type nodeStack []ast.Node

func (s nodeStack) topValue() ast.Node {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// push pushes a node onto the stack.
func (s *nodeStack) push(value ast.Node) {
	*s = append(*s, value)
}

// pop removes the node from the stack and returns it.
func (s *nodeStack) pop() ast.Node {
	n := len(*s)
	if n == 0 {
		return nil
	}
	value := (*s)[n-1]
	*s = (*s)[:n-1]
	return value
}
