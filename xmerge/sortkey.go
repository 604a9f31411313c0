/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

import (
	"cmp"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// NullsPlacement controls where NULL sorts relative to non-NULL values.
type NullsPlacement int

const (
	NullsFirst NullsPlacement = iota
	NullsLast
)

func (n NullsPlacement) String() string {
	if n == NullsFirst {
		return "first"
	}
	return "last"
}

func (n NullsPlacement) MarshalJSON() ([]byte, error) { return jsoniter.Marshal(n.String()) }

func (n *NullsPlacement) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsoniter.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "first":
		*n = NullsFirst
	case "last":
		*n = NullsLast
	default:
		return fmt.Errorf("xmerge: invalid nulls placement %q", s)
	}
	return nil
}

// Direction is the per-column sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Asc {
		return "asc"
	}
	return "desc"
}

func (d Direction) MarshalJSON() ([]byte, error) { return jsoniter.Marshal(d.String()) }

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsoniter.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "asc":
		*d = Asc
	case "desc":
		*d = Desc
	default:
		return fmt.Errorf("xmerge: invalid sort direction %q", s)
	}
	return nil
}

// SortColumn is one (channel, direction, nulls) triple.
type SortColumn struct {
	Channel int            `json:"channel"`
	Dir     Direction      `json:"dir"`
	Nulls   NullsPlacement `json:"nulls"`
}

// SortKey is an ordered list of SortColumns defining a total order on
// PageWithPosition, tie-broken by ascending source index for stability.
type SortKey []SortColumn

// Compare returns <0, 0, >0 as a sorts before, at the same position as, or
// after b, per k. Ties are broken by ascending SourceIndex so that rows
// from an earlier-indexed stream are emitted first - required for
// stability (spec.md §4.1).
func (k SortKey) Compare(a, b PageWithPosition) int {
	for _, sc := range k {
		av := a.Page.Value(sc.Channel, a.Position)
		bv := b.Page.Value(sc.Channel, b.Position)
		if c := sc.compareValues(av, bv); c != 0 {
			return c
		}
	}
	if a.SourceIndex != b.SourceIndex {
		return cmp.Compare(a.SourceIndex, b.SourceIndex)
	}
	return 0
}

func (sc SortColumn) compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return sc.nullSign()
	}
	if b == nil {
		return -sc.nullSign()
	}
	c := compareAny(a, b)
	if sc.Dir == Desc {
		c = -c
	}
	return c
}

// nullSign returns the sign contributed by a NULL on the left-hand side of
// the comparison, honoring the column's nulls placement independent of
// sort direction (NULLS FIRST/LAST is a property of the column spec, not
// of ascending/descending order).
func (sc SortColumn) nullSign() int {
	if sc.Nulls == NullsFirst {
		return -1
	}
	return 1
}

// compareAny compares two non-nil values of the same underlying scalar
// kind. It panics on an unsupported or mismatched pairing - such a
// mismatch is a configuration error that NewEngine's per-channel type
// check (engine.go) must catch at construction, not papered over here.
func compareAny(a, b any) int {
	switch av := a.(type) {
	case int64:
		return cmp.Compare(av, b.(int64))
	case int32:
		return cmp.Compare(av, b.(int32))
	case float64:
		return cmp.Compare(av, b.(float64))
	case float32:
		return cmp.Compare(av, b.(float32))
	case string:
		return cmp.Compare(av, b.(string))
	case []byte:
		bb := b.([]byte)
		for i := 0; i < len(av) && i < len(bb); i++ {
			if av[i] != bb[i] {
				return cmp.Compare(av[i], bb[i])
			}
		}
		return cmp.Compare(len(av), len(bb))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case av:
			return 1
		default:
			return -1
		}
	default:
		panic(fmt.Sprintf("xmerge: unsupported sort value type %T", a))
	}
}
