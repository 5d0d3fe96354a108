package geom

import (
	"encoding/json"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// transformDoc is the human-facing shape of a Transform3d in JSON and YAML
// documents (CLI input files, rendered output, recorded rows).
type transformDoc struct {
	Translation vecDoc  `json:"translation" yaml:"translation"`
	Rotation    quatDoc `json:"rotation" yaml:"rotation"`
}

type vecDoc struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

type quatDoc struct {
	W float64 `json:"w" yaml:"w"`
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (t Transform3d) doc() transformDoc {
	return transformDoc{
		Translation: vecDoc{X: t.Translation.X, Y: t.Translation.Y, Z: t.Translation.Z},
		Rotation:    quatDoc{W: t.Rotation.Real, X: t.Rotation.Imag, Y: t.Rotation.Jmag, Z: t.Rotation.Kmag},
	}
}

func (d transformDoc) transform() Transform3d {
	return Transform3d{
		Translation: r3.Vec{X: d.Translation.X, Y: d.Translation.Y, Z: d.Translation.Z},
		Rotation:    quat.Number{Real: d.Rotation.W, Imag: d.Rotation.X, Jmag: d.Rotation.Y, Kmag: d.Rotation.Z},
	}
}

// MarshalJSON implements json.Marshaler.
func (t Transform3d) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.doc())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Transform3d) UnmarshalJSON(data []byte) error {
	var d transformDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*t = d.transform()
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t Transform3d) MarshalYAML() (any, error) {
	return t.doc(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Transform3d) UnmarshalYAML(node *yaml.Node) error {
	var d transformDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	*t = d.transform()
	return nil
}
