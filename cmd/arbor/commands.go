package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/arbor/dom/domdbg"
	"github.com/npillmayer/arbor/dom/query"
	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the document tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return doc.Read(func(t *dom.Tree) error {
				fmt.Fprint(cmd.OutOrStdout(), domdbg.Print(t, t.Root()))
				return nil
			})
		},
	}
}

func newDotCmd() *cobra.Command {
	var attrs bool
	cmd := &cobra.Command{
		Use:   "dot FILE",
		Short: "Print the document tree as a GraphViz digraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return doc.Read(func(t *dom.Tree) error {
				return domdbg.ToGraphViz(t.Document(), cmd.OutOrStdout(), attrs)
			})
		},
	}
	cmd.Flags().BoolVar(&attrs, "attributes", false, "include attribute tables")
	return cmd
}

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select SELECTOR FILE",
		Short: "Print the elements matching a CSS selector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := load(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return doc.Read(func(t *dom.Tree) error {
				matches, err := query.Select(t, t.Root(), args[0])
				if err != nil {
					return err
				}
				for _, id := range matches {
					text, _ := t.TextContent(id)
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%q\n", id, t.NodeFor(id).NodeName(),
						strings.TrimSpace(text))
				}
				return nil
			})
		},
	}
}

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles FILE",
		Short: "Print the embedded stylesheets and inline styles of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return doc.Read(func(t *dom.Tree) error {
				out := cmd.OutOrStdout()
				sheets, err := query.StyleSheets(t)
				if err != nil {
					return err
				}
				for _, sheet := range sheets {
					for _, r := range sheet.Rules() {
						fmt.Fprintf(out, "%s {", r.Selector())
						for _, p := range r.Properties() {
							fmt.Fprintf(out, " %s: %s;", p, r.Value(p))
						}
						fmt.Fprintln(out, " }")
					}
				}
				styled, err := query.Select(t, t.Root(), "[style]")
				if err != nil {
					return err
				}
				for _, id := range styled {
					decls, err := query.InlineStyle(t, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s <%s>", id, t.NodeFor(id).NodeName())
					for _, d := range decls {
						fmt.Fprintf(out, " %s: %s;", d.Property, d.Value)
					}
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
}
