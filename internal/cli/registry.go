package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/registry"
)

// registryCommand lists the module kinds that can be added to a layout.
func (c *CLI) registryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registry",
		Aliases: []string{"kinds"},
		Short:   "Browse the module kinds",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List module kinds by category",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, byCat := registry.Default().Categories()
			for _, cat := range cats {
				fmt.Println(StyleTitle.Render(cat))
				t := newTable("Kind", "Name", "Width", "Description")
				for _, k := range byCat[cat] {
					t.Row(k.Name, k.DisplayName, string(k.DefaultWidth), k.Description)
				}
				fmt.Println(t.Render())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:               "show <kind>",
		Short:             "Show a kind's configuration schema",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.showKind(cmd.Context(), args[0])
		},
	})

	return cmd
}

func (c *CLI) showKind(_ context.Context, name string) error {
	k, ok := registry.Default().Lookup(name)
	if !ok {
		return errors.New(errors.ErrCodeUnknownKind, "unknown module kind %q", name)
	}
	fmt.Println(StyleTitle.Render(k.DisplayName) + " " + StyleDim.Render(k.Icon))
	printDetail("%s", k.Description)
	printKeyValue("Category", k.Category)
	printKeyValue("Width", string(k.DefaultWidth))
	printNewline()

	t := newTable("Key", "Label", "Type", "Default", "Allowed")
	for _, f := range k.Fields {
		t.Row(f.Key, f.Label, string(f.Type), fmt.Sprint(f.Default), allowed(f))
	}
	fmt.Println(t.Render())
	return nil
}

// allowed describes the values a field accepts.
func allowed(f registry.Field) string {
	switch f.Type {
	case registry.FieldNumber:
		lo, hi := f.Bounds()
		return fmt.Sprintf("%d..%d", lo, hi)
	case registry.FieldSelect:
		return fmt.Sprint(f.Options)
	case registry.FieldBoolean:
		return "true, false"
	}
	return ""
}
