package main

import (
	"fmt"
	"sort"
	"strings"

	"patchconv/blofeld"
	"patchconv/config"
	"patchconv/patch"
)

// target is a synth patches can be converted onto.
type target struct {
	Name        string
	Description string
	Template    func() *patch.Patch
	// Sysex renders a resolved template as the synth's sound dump.
	Sysex func(p *patch.Patch, cfg config.BlofeldConfig) ([]byte, error)
}

var targets = map[string]target{
	"blofeld": {
		Name:        "blofeld",
		Description: "Waldorf Blofeld: 3 oscillators, noise, 2 parallel filters, 3 envelopes, 3 LFOs, 16 slot modulation matrix",
		Template:    blofeld.Template,
		Sysex:       blofeldSysex,
	},
}

func findTarget(name string) (target, error) {
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return target{}, fmt.Errorf("unknown target %q (known: %s)", name, strings.Join(targetNames(), ", "))
	}
	return t, nil
}

func targetNames() []string {
	names := make([]string, 0, len(targets))
	for n := range targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// blofeldLocation addresses the edit buffer unless a bank is configured.
func blofeldLocation(cfg config.BlofeldConfig) (blofeld.Location, error) {
	if cfg.Bank == "" {
		return blofeld.EditBuffer(cfg.DeviceID), nil
	}
	return blofeld.ParseLocation(cfg.DeviceID, cfg.Bank, cfg.Program)
}

func blofeldSysex(p *patch.Patch, cfg config.BlofeldConfig) ([]byte, error) {
	loc, err := blofeldLocation(cfg)
	if err != nil {
		return nil, err
	}
	s, err := blofeld.Export(p)
	if err != nil {
		return nil, err
	}
	msg, err := s.SNDD(loc)
	if err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}
