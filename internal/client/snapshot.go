package client

import (
	"context"
)

// MetaParam is a meta parameter name with its current value.
type MetaParam struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Snapshot is a point-in-time view of the Tool's current patch.
type Snapshot struct {
	Model      string      `json:"model" yaml:"model"`
	Patch      string      `json:"patch" yaml:"patch"`
	Variation  float64     `json:"variation" yaml:"variation"`
	Meta       []MetaParam `json:"meta" yaml:"meta"`
	Curves     []string    `json:"curves" yaml:"curves"`
	Playing    bool        `json:"playing" yaml:"playing"`
	Infinite   bool        `json:"infinite" yaml:"infinite"`
	Randomized bool        `json:"randomized" yaml:"randomized"`
}

// Snapshot reads the current patch state with one request at a time. The
// first failing request aborts the snapshot.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Model, err = c.ModelName(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Patch, err = c.PatchName(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Variation, err = c.Variation(ctx); err != nil {
		return Snapshot{}, err
	}

	names, err := c.MetaNames(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.Meta = make([]MetaParam, 0, len(names))
	for i, name := range names {
		v, err := c.MetaValue(ctx, ByIndex(i))
		if err != nil {
			return Snapshot{}, err
		}
		s.Meta = append(s.Meta, MetaParam{Name: name, Value: v})
	}

	if s.Curves, err = c.CurveNames(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Playing, err = c.IsPlaying(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Infinite, err = c.IsInfinite(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Randomized, err = c.IsRandomized(ctx); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
