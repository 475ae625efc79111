// Package checklist exposes the static MANRURA reference data: standards, their elements and
// the points that receive scores.
package checklist

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/rskariadi-dev/manrura/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed manrura.yaml
var manruraYAML []byte

type Checklist struct {
	standards []domain.Standard
	points    map[string]domain.Point
	order     []string
}

type document struct {
	Standards []domain.Standard `yaml:"standards"`
}

// Parse decodes a checklist document and checks that every point ID is unique.
func Parse(data []byte) (*Checklist, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("checklist: parse: %w", err)
	}
	if len(doc.Standards) == 0 {
		return nil, errors.New("checklist: no standards defined")
	}

	c := &Checklist{
		standards: doc.Standards,
		points:    make(map[string]domain.Point),
	}
	for _, std := range doc.Standards {
		for _, el := range std.Elements {
			for _, p := range el.Points {
				if p.ID == "" {
					return nil, fmt.Errorf("checklist: point without id in element %s", el.ID)
				}
				if _, dup := c.points[p.ID]; dup {
					return nil, fmt.Errorf("checklist: duplicate point id %s", p.ID)
				}
				c.points[p.ID] = p
				c.order = append(c.order, p.ID)
			}
		}
	}
	return c, nil
}

// Default returns the embedded MANRURA checklist.
func Default() *Checklist {
	c, err := Parse(manruraYAML)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Checklist) Standards() []domain.Standard {
	return c.standards
}

func (c *Checklist) Standard(id string) (domain.Standard, bool) {
	for _, s := range c.standards {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Standard{}, false
}

func (c *Checklist) Point(id string) (domain.Point, bool) {
	p, ok := c.points[id]
	return p, ok
}

func (c *Checklist) HasPoint(id string) bool {
	_, ok := c.points[id]
	return ok
}

// PointIDs lists every point in document order.
func (c *Checklist) PointIDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Checklist) Len() int {
	return len(c.order)
}
