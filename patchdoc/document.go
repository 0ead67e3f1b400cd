// Package patchdoc reads and writes generic patches as YAML or JSON
// documents.
package patchdoc

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Document is the serialized form of a generic patch.
type Document struct {
	Version      string      `yaml:"version" json:"version" validate:"required"`
	SynthVersion string      `yaml:"synth_generic_version,omitempty" json:"synth_generic_version,omitempty"`
	ID           string      `yaml:"id,omitempty" json:"id,omitempty" validate:"omitempty,uuid"`
	Name         string      `yaml:"patch_name,omitempty" json:"patch_name,omitempty"`
	Number       string      `yaml:"patch_number,omitempty" json:"patch_number,omitempty"`
	Bank         string      `yaml:"patch_bank,omitempty" json:"patch_bank,omitempty"`
	Comment      string      `yaml:"patch_comment,omitempty" json:"patch_comment,omitempty"`
	Modules      []ModuleDoc `yaml:"modules" json:"modules" validate:"required,min=1,dive"`
}

type ModuleDoc struct {
	Name   string `yaml:"name" json:"name" validate:"required"`
	Type   string `yaml:"type" json:"type" validate:"required"`
	Number int    `yaml:"number" json:"number" validate:"gte=0"`
	Used   string `yaml:"used,omitempty" json:"used,omitempty" validate:"omitempty,oneof=not_checked unused possible_modulator required"`
	// From names the source module a converted module stands in for.
	From string `yaml:"from,omitempty" json:"from,omitempty"`

	Parms       []ParmDoc       `yaml:"parms,omitempty" json:"parms,omitempty" validate:"dive"`
	InputJacks  []InputJackDoc  `yaml:"input_jacks,omitempty" json:"input_jacks,omitempty" validate:"dive"`
	OutputJacks []OutputJackDoc `yaml:"output_jacks,omitempty" json:"output_jacks,omitempty" validate:"dive"`
}

type ParmDoc struct {
	Name         string    `yaml:"name" json:"name" validate:"required"`
	Unit         string    `yaml:"unit,omitempty" json:"unit,omitempty"`
	ResponseType string    `yaml:"response_type,omitempty" json:"response_type,omitempty"`
	Value        string    `yaml:"value" json:"value"`
	Morph        *MorphDoc `yaml:"morph,omitempty" json:"morph,omitempty"`
	// Link is the "module/parm" path of the parameter this one mirrors.
	Link string `yaml:"link,omitempty" json:"link,omitempty"`
}

type MorphDoc struct {
	Max     string `yaml:"max" json:"max"`
	Source  string `yaml:"source,omitempty" json:"source,omitempty"`
	Control string `yaml:"control,omitempty" json:"control,omitempty"`
}

type InputJackDoc struct {
	Name       string `yaml:"name" json:"name" validate:"required"`
	Type       string `yaml:"type" json:"type" validate:"required,oneof=control_input audio_input"`
	Attenuator string `yaml:"attenuator,omitempty" json:"attenuator,omitempty"`
	// SourceModule and SourceJack name the output feeding this jack.
	SourceModule string `yaml:"source_module,omitempty" json:"source_module,omitempty" validate:"required_with=SourceJack"`
	SourceJack   string `yaml:"source_jack,omitempty" json:"source_jack,omitempty" validate:"required_with=SourceModule"`
}

type OutputJackDoc struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Type     string `yaml:"type" json:"type" validate:"required,oneof=control_output audio_output"`
	Polarity string `yaml:"polarity,omitempty" json:"polarity,omitempty" validate:"omitempty,oneof=bipolar positive negative"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the document shape. Cross references are checked when
// the document is turned into a patch.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid patch document: %w", err)
	}
	return nil
}

// Read parses a YAML document. JSON input is accepted as well.
func Read(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse patch document: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// WriteYAML writes d as YAML.
func (d *Document) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to write patch document: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes d as indented JSON.
func (d *Document) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal patch document: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
