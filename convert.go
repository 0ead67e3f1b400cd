package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"patchconv/blofeld"
	"patchconv/patch"
	"patchconv/patchdoc"
	"patchconv/resolve"
)

func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(args[0])
}

func readPatch(r io.Reader) (*patch.Patch, error) {
	doc, err := patchdoc.Read(r)
	if err != nil {
		return nil, err
	}
	return doc.Patch()
}

func writeDoc(w io.Writer, d *patchdoc.Document, format string) error {
	switch format {
	case "yaml", "":
		return d.WriteYAML(w)
	case "json":
		return d.WriteJSON(w)
	}
	return fmt.Errorf("unknown format %q", format)
}

// convert resolves src onto a fresh template of the named target.
func (a *app) convert(src *patch.Patch, targetName string) (*resolve.Result, target, error) {
	t, err := findTarget(targetName)
	if err != nil {
		return nil, target{}, err
	}
	res, err := a.converter().Convert(src, t.Template())
	if err != nil {
		return nil, t, fmt.Errorf("convert %q to %s: %w", src.Name, t.Name, err)
	}
	return res, t, nil
}

func newConvertCmd(a *app) *cobra.Command {
	var (
		targetName string
		format     string
		sysexPath  string
		summary    bool
		bank       string
		program    int
	)
	cmd := &cobra.Command{
		Use:   "convert [patch.yaml]",
		Short: "Convert a generic patch document onto a target synth",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			src, err := readPatch(in)
			if err != nil {
				return err
			}
			res, t, err := a.convert(src, targetName)
			if err != nil {
				return err
			}

			if sysexPath != "" {
				dest := a.cfg.Blofeld
				if cmd.Flags().Changed("bank") {
					dest.Bank = bank
				}
				if cmd.Flags().Changed("program") {
					dest.Program = program
				}
				data, err := t.Sysex(res.Target, dest)
				if err != nil {
					return err
				}
				if err := os.WriteFile(sysexPath, data, 0o644); err != nil {
					return err
				}
				a.log.Info("sysex written", "path", sysexPath, "bytes", len(data))
			}

			if summary {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Summary())
			}
			return writeDoc(cmd.OutOrStdout(), patchdoc.FromResult(res), format)
		},
	}
	cmd.Flags().StringVarP(&targetName, "target", "t", "blofeld", "target synth")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().StringVar(&sysexPath, "sysex", "", "also write the converted patch as a sysex dump to this file")
	cmd.Flags().BoolVar(&summary, "summary", false, "print the module and jack mapping instead of the patch")
	cmd.Flags().StringVar(&bank, "bank", "", "sysex bank A-H, empty for the edit buffer")
	cmd.Flags().IntVar(&program, "program", 0, "sysex program 1-128")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import [sound.syx]",
		Short: "Read a Blofeld sound dump as a generic patch document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			s, loc, err := blofeld.ParseSNDD(midi.Message(data))
			if err != nil {
				return err
			}
			p, err := blofeld.Import(s)
			if err != nil {
				return err
			}
			p.Bank = loc.String()
			a.log.Info("sound imported", "name", s.Name, "location", loc.String())
			return writeDoc(cmd.OutOrStdout(), patchdoc.FromPatch(p), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func newTemplateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "template [target]",
		Short: "Print the module template of a target synth",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "blofeld"
			if len(args) > 0 {
				name = args[0]
			}
			t, err := findTarget(name)
			if err != nil {
				return err
			}
			a.log.Debug("writing template", "target", t.Name)
			return writeDoc(cmd.OutOrStdout(), patchdoc.FromPatch(t.Template()), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func newTargetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the supported target synths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range targetNames() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", n, targets[n].Description)
			}
			return nil
		},
	}
}
