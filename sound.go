package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"patchconv/blofeld"
)

func newSoundCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sound",
		Short: "Inspect and build raw Blofeld sound dumps",
	}
	cmd.AddCommand(newSoundDumpCmd(a), newSoundPackCmd(a))
	return cmd
}

func newSoundDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [sound.syx]",
		Short: "Print a sound dump as JSON",
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
			a.log.Info("read sound", "name", s.Name, "location", loc.String(), "device", loc.Device)

			asJSON, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(asJSON, '\n'))
			return err
		},
	}
}

func newSoundPackCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pack [sound.json]",
		Short: "Build a sound dump from JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			s := blofeld.InitSound()
			if err := json.NewDecoder(in).Decode(s); err != nil {
				return err
			}
			loc, err := blofeldLocation(a.cfg.Blofeld)
			if err != nil {
				return err
			}
			msg, err := s.SNDD(loc)
			if err != nil {
				return err
			}
			a.log.Info("packed sound", "name", s.Name, "location", loc.String())

			if out == "" {
				_, err = cmd.OutOrStdout().Write(msg.Bytes())
				return err
			}
			return os.WriteFile(out, msg.Bytes(), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the dump to this file instead of stdout")
	return cmd
}
