// Package parser pulls record arrays out of upstream responses whose envelope
// is not stable. It never fails: malformed input only yields fewer records.
package parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// EnvelopeAliases are the field names known to hold the data array.
var EnvelopeAliases = []string{
	"items",
	"posts",
	"plans",
	"supportings",
	"supportingCreators",
	"creators",
	"data",
	"list",
}

const maxWalkDepth = 8

// Extractor turns one JSON object into a record, or reports false when the
// object has no usable identity field.
type Extractor[T any] func(obj gjson.Result) (T, bool)

// Parse locates the data array in body and extracts its records.
//
// Notes:
//   - The envelope search checks an array-valued root or "body", then the
//     aliases inside an object-valued "body", then the aliases at the top level.
//   - When no envelope array is found, or the one found yields nothing, every
//     array reachable through object fields is tried in document order.
//   - An envelope array that is present but empty is an empty result.
func Parse[T any](body []byte, extract Extractor[T]) []T {
	if extract == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return nil
	}
	root := gjson.ParseBytes(trimmed)
	if arr, ok := envelopeArray(root); ok {
		out := extractAll(arr, extract)
		if len(out) > 0 || len(arr.Array()) == 0 {
			return out
		}
	}
	return heuristic(root, extract)
}

func envelopeArray(root gjson.Result) (gjson.Result, bool) {
	if root.IsArray() {
		return root, true
	}
	if !root.IsObject() {
		return gjson.Result{}, false
	}
	body := root.Get("body")
	if body.IsArray() {
		return body, true
	}
	if body.IsObject() {
		for _, name := range EnvelopeAliases {
			if v := body.Get(name); v.IsArray() {
				return v, true
			}
		}
	}
	for _, name := range EnvelopeAliases {
		if v := root.Get(name); v.IsArray() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func heuristic[T any](root gjson.Result, extract Extractor[T]) []T {
	for _, arr := range collectArrays(root, 0, nil) {
		if out := extractAll(arr, extract); len(out) > 0 {
			return out
		}
	}
	return nil
}

// collectArrays walks object fields depth-first in document order.
func collectArrays(node gjson.Result, depth int, acc []gjson.Result) []gjson.Result {
	if depth > maxWalkDepth || !node.IsObject() {
		return acc
	}
	node.ForEach(func(_, value gjson.Result) bool {
		switch {
		case value.IsArray():
			acc = append(acc, value)
		case value.IsObject():
			acc = collectArrays(value, depth+1, acc)
		}
		return true
	})
	return acc
}

func extractAll[T any](arr gjson.Result, extract Extractor[T]) []T {
	var out []T
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		if rec, ok := extract(item); ok {
			out = append(out, rec)
		}
		return true
	})
	return out
}

// Describe summarises the top-level shape of a response for the debug log.
func Describe(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return ""
	}
	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		return ""
	}
	var b strings.Builder
	b.WriteString("rootKeys=[" + strings.Join(keys(root), ",") + "]")
	switch body := root.Get("body"); {
	case body.IsObject():
		b.WriteString(" body.keys=[" + strings.Join(keys(body), ",") + "]")
	case body.IsArray():
		b.WriteString(" body.length=" + strconv.Itoa(len(body.Array())))
	}
	return b.String()
}

func keys(obj gjson.Result) []string {
	var out []string
	obj.ForEach(func(key, _ gjson.Result) bool {
		out = append(out, key.String())
		return true
	})
	return out
}

// firstString returns the first non-blank string or integer value among paths.
func firstString(obj gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := obj.Get(p)
		if v.Type != gjson.String && v.Type != gjson.Number {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// object returns the value at path when it is a JSON object.
func object(obj gjson.Result, path string) (gjson.Result, bool) {
	v := obj.Get(path)
	if !v.IsObject() {
		return gjson.Result{}, false
	}
	return v, true
}

func strPtr(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
