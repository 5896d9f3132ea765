package query

import (
	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/npillmayer/arbor/dom"
	"github.com/pkg/errors"
)

// StyleSheet is a parsed CSS stylesheet.
type StyleSheet struct {
	css css.Stylesheet
}

// Wrap a douceur.css.Stylesheet into a StyleSheet.
// The stylesheet is now managed by the wrapper.
func Wrap(css *css.Stylesheet) *StyleSheet {
	return &StyleSheet{*css}
}

// ParseStyleSheet parses CSS text.
func ParseStyleSheet(text string) (*StyleSheet, error) {
	c, err := parser.Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parsing stylesheet")
	}
	return Wrap(c), nil
}

// Empty checks if this stylesheet contains any rules.
func (sheet *StyleSheet) Empty() bool {
	return len(sheet.css.Rules) == 0
}

// AppendRules appends rules from another stylesheet.
func (sheet *StyleSheet) AppendRules(other *StyleSheet) {
	sheet.css.Rules = append(sheet.css.Rules, other.css.Rules...)
}

// Rules returns all the rules of a stylesheet.
func (sheet *StyleSheet) Rules() []Rule {
	rules := make([]Rule, len(sheet.css.Rules))
	for i, r := range sheet.css.Rules {
		rules[i] = Rule(*r)
	}
	return rules
}

// Rule is a rule of a stylesheet.
type Rule css.Rule

// Selector returns the prelude / selectors of the rule.
func (r Rule) Selector() string {
	return r.Prelude
}

// Properties returns the property keys of a rule,
// e.g. "margin-top"
func (r Rule) Properties() []string {
	props := make([]string, 0, len(r.Declarations))
	for _, d := range r.Declarations {
		props = append(props, d.Property)
	}
	return props
}

// Value returns the property value for given key with this rule, e.g. "15px"
func (r Rule) Value(key string) string {
	for _, d := range r.Declarations {
		if d.Property == key {
			return d.Value
		}
	}
	return ""
}

// IsImportant returns true if a style key is marked as important ("!").
func (r Rule) IsImportant(key string) bool {
	for _, d := range r.Declarations {
		if d.Property == key {
			return d.Important
		}
	}
	return false
}

// StyleSheets visits <head> and <body> elements of a document and returns
// the content of embedded <style> elements as style sheets, in document
// order. A style element which cannot be parsed ends the search with an
// error.
func StyleSheets(t *dom.Tree) ([]*StyleSheet, error) {
	var sheets []*StyleSheet
	for _, section := range []dom.NodeID{t.Head(), t.Body()} {
		if section.IsNil() {
			continue
		}
		styles, err := t.Walk(section).Collect(dom.NodeIsElement("style"))
		if err != nil {
			return sheets, err
		}
		for _, style := range styles {
			text, err := t.TextContent(style)
			if err != nil {
				return sheets, err
			}
			sheet, err := ParseStyleSheet(text)
			if err != nil {
				return sheets, errors.Wrapf(err, "style element %s", style)
			}
			sheets = append(sheets, sheet)
		}
	}
	return sheets, nil
}

// Declaration is a single property of an inline style.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// InlineStyle parses the style attribute of an element. An element without
// style attribute has no declarations.
func InlineStyle(t *dom.Tree, id dom.NodeID) ([]Declaration, error) {
	if _, err := t.Kind(id); err != nil {
		return nil, err
	}
	text, ok := t.Attribute(id, "style")
	if !ok {
		return nil, nil
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil, errors.Wrapf(err, "style attribute of %s", id)
	}
	result := make([]Declaration, len(decls))
	for i, d := range decls {
		result[i] = Declaration{Property: d.Property, Value: d.Value, Important: d.Important}
	}
	return result, nil
}

// MatchRules evaluates the qualified rules of style sheets against the
// attached part of a document. It returns, for every element matched by at
// least one rule, the matching rules in stylesheet order. Rules with
// selectors cascadia does not understand (e.g. pseudo-elements) are
// skipped.
func MatchRules(t *dom.Tree, sheets ...*StyleSheet) (map[dom.NodeID][]Rule, error) {
	m, err := NewMirror(t)
	if err != nil {
		return nil, err
	}
	matches := make(map[dom.NodeID][]Rule)
	for _, sheet := range sheets {
		for _, r := range sheet.css.Rules {
			if r.Kind != css.QualifiedRule {
				continue
			}
			sel, err := cascadia.Compile(r.Prelude)
			if err != nil {
				tracer().Infof("skipping rule %q: %v", r.Prelude, err)
				continue
			}
			ids, _ := m.Select(t.Root(), sel)
			for _, id := range ids {
				matches[id] = append(matches[id], Rule(*r))
			}
		}
	}
	return matches, nil
}
