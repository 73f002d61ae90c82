package main

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mxkacsa/worldsync"
	"github.com/mxkacsa/worldsync/parse"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

func runValidate(cmd *cobra.Command, args []string) error {
	e := newEngine(cfg, logger)
	out := cmd.OutOrStdout()

	failed := 0
	for _, path := range args {
		data, err := e.loader.LoadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s %s\n", failStyle.Render("FAIL"), path)
			var verrs *parse.ValidationErrors
			if errors.As(err, &verrs) {
				for _, ve := range verrs.Errors {
					fmt.Fprintf(out, "  %s\n", ve)
				}
			} else {
				fmt.Fprintf(out, "  %s\n", err)
			}
			continue
		}
		fmt.Fprintf(out, "%s %s (%s: %d regions, %d locations)\n",
			okStyle.Render("ok"), path, data.Game, data.NumRegions(), len(data.Locations()))
	}
	if failed > 0 {
		return eris.Errorf("%d of %d rules files invalid", failed, len(args))
	}
	return nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case "table", "json":
	default:
		return eris.Errorf("unknown output format %q", outputFormat)
	}
	e := newEngine(cfg, logger)
	data, err := e.loader.LoadFile(args[0])
	if err != nil {
		return err
	}
	doc, err := readStateFile(stateFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SolveTimeout)
		defer cancel()
	}
	in := doc.inputs()
	res, err := e.solver.Solve(ctx, data, in)
	if err != nil {
		return err
	}
	snap := state.New(1, data.LoadID, in, res)

	if outputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(worldsync.Document(snap))
	}
	fmt.Fprint(cmd.OutOrStdout(), renderSnapshot(data, snap))
	return nil
}

func runSchema(cmd *cobra.Command, _ []string) error {
	schema := jsonschema.Reflect(&world.Document{})
	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal schema")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return err
}
