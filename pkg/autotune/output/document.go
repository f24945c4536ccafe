package output

import (
	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
)

// document is the structured form shared by the JSON and YAML formatters.
type document struct {
	RunID          string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Resources      []resourceDoc `json:"resources" yaml:"resources"`
	Workload       string        `json:"workload,omitempty" yaml:"workload,omitempty"`
	Storage        string        `json:"storage,omitempty" yaml:"storage,omitempty"`
	ConnectionTier string        `json:"connection_tier,omitempty" yaml:"connection_tier,omitempty"`
	Settings       []settingDoc  `json:"settings,omitempty" yaml:"settings,omitempty"`
	Args           []string      `json:"args,omitempty" yaml:"args,omitempty"`
	Notes          []string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	Warnings       []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type resourceDoc struct {
	Kind   string `json:"kind" yaml:"kind"`
	Value  int64  `json:"value" yaml:"value"`
	Human  string `json:"human,omitempty" yaml:"human,omitempty"`
	Source string `json:"source" yaml:"source"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type settingDoc struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// buildDocument converts a Result to its structured form.
func buildDocument(r *Result) document {
	doc := document{
		RunID:     r.RunID,
		Resources: make([]resourceDoc, len(r.Readings)),
		Notes:     r.Notes,
		Warnings:  r.Warnings,
	}

	for i, reading := range r.Readings {
		res := resourceDoc{
			Kind:   string(reading.Kind),
			Value:  reading.Value,
			Source: string(reading.Source),
			Detail: reading.Detail,
		}
		if reading.Kind == types.KindMemory {
			res.Human = types.FormatMB(reading.Value)
		}
		doc.Resources[i] = res
	}

	settings := r.Settings()
	if len(settings) == 0 {
		return doc
	}

	doc.Workload = string(r.Profile.Hints.Workload)
	doc.Storage = string(r.Profile.Hints.Storage)
	doc.ConnectionTier = r.Profile.ConnectionTier
	doc.Args = r.Emission.Args
	doc.Settings = make([]settingDoc, len(settings))
	for i, s := range settings {
		doc.Settings[i] = settingDoc{Name: s.Name, Value: s.Value}
	}

	return doc
}
