// Copyright 2023 Jesus Ruiz. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package sliceedit extends the functionalities of rsc.io/edit to
// implement eficient buffered editing of byte slices.
// All edits are expressed in offsets of the original data and applied in a single
// pass when the result is requested, so matching never sees its own replacements.
// Edits must not overlap.
package sliceedit

import (
	"bytes"
	"regexp"

	"rsc.io/edit"
)

// A Buffer is a queue of edits to apply to a given byte slice.
type Buffer struct {
	ed    *edit.Buffer
	buf   []byte
	edits int
}

// NewBuffer returns a new buffer to accumulate changes to an initial data slice.
// The returned buffer maintains a reference to the data, so the caller must ensure
// the data is not modified until after the Buffer is done being used.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{
		buf: buf,
		ed:  edit.NewBuffer(buf),
	}
}

// FindAll finds all non-overlapping instances of item in buf.
func FindAll(buf []byte, item string) []int {
	found := []int{}

	if len(item) == 0 {
		return found
	}

	realOffset := 0

	for {
		i := bytes.Index(buf, []byte(item))
		if i == -1 {
			return found
		}
		found = append(found, i+realOffset)
		buf = buf[i+len(item):]
		realOffset = realOffset + i + len(item)
	}
}

// Delete deletes the original bytes in [start, end).
func (b *Buffer) Delete(start, end int) {
	b.ed.Delete(start, end)
	b.edits++
}

// Replace replaces the original bytes in [start, end) with new.
func (b *Buffer) Replace(start, end int, new string) {
	b.ed.Replace(start, end, new)
	b.edits++
}

// ReplaceAllString replaces every occurrence of old with new.
func (b *Buffer) ReplaceAllString(old string, new string) {
	for _, hit := range FindAll(b.buf, old) {
		b.Replace(hit, hit+len(old), new)
	}
}

// ReplaceAllRegexp replaces every match of re in the original data with the
// string returned by repl. The argument of repl is the submatch index slice of the
// match, as returned by FindAllSubmatchIndex, so repl can look at groups in Source().
func (b *Buffer) ReplaceAllRegexp(re *regexp.Regexp, repl func(m []int) string) {
	for _, m := range re.FindAllSubmatchIndex(b.buf, -1) {
		b.Replace(m[0], m[1], repl(m))
	}
}

// Source returns the original data the edits refer to.
func (b *Buffer) Source() []byte {
	return b.buf
}

// Group returns the text of submatch i of m in the original data, or "" when the group did not match.
func (b *Buffer) Group(m []int, i int) string {
	if 2*i+1 >= len(m) || m[2*i] < 0 {
		return ""
	}
	return string(b.buf[m[2*i]:m[2*i+1]])
}

// Edits returns the number of edits queued so far.
func (b *Buffer) Edits() int {
	return b.edits
}

// Bytes returns a new byte slice containing the original data
// with the queued edits applied.
func (b *Buffer) Bytes() []byte {
	return b.ed.Bytes()
}

// String returns a string containing the original data
// with the queued edits applied.
func (b *Buffer) String() string {
	return string(b.ed.Bytes())
}
