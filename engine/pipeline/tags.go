package pipeline

import "golang.org/x/exp/slices"

/** @brief A deduplicated set of render tags. */
type TagSet map[string]struct{}

func NewTagSet(tags ...string) TagSet {
	ts := make(TagSet, len(tags))
	for _, tag := range tags {
		ts[tag] = struct{}{}
	}
	return ts
}

func (ts TagSet) Has(tag string) bool {
	_, ok := ts[tag]
	return ok
}

func (ts TagSet) Len() int {
	return len(ts)
}

// Sorted returns the tags in lexical order.
func (ts TagSet) Sorted() []string {
	out := make([]string, 0, len(ts))
	for tag := range ts {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func (ts TagSet) Equal(other TagSet) bool {
	if len(ts) != len(other) {
		return false
	}
	for tag := range ts {
		if !other.Has(tag) {
			return false
		}
	}
	return true
}

/**
 * @brief Camera tag to render tag sets. Each element of a value list belongs to
 * one stage that declared the camera tag, in the order the stages were added.
 */
type TagIndex map[string][]TagSet

func (ti TagIndex) clone() TagIndex {
	out := make(TagIndex, len(ti))
	for camera, sets := range ti {
		copied := make([]TagSet, len(sets))
		for i, set := range sets {
			copied[i] = NewTagSet(set.Sorted()...)
		}
		out[camera] = copied
	}
	return out
}

// Union merges every stage set of a camera into one set.
func (ti TagIndex) Union(camera string) TagSet {
	out := TagSet{}
	for _, set := range ti[camera] {
		for tag := range set {
			out[tag] = struct{}{}
		}
	}
	return out
}

// Cameras returns the indexed camera tags, sorted.
func (ti TagIndex) Cameras() []string {
	out := make([]string, 0, len(ti))
	for camera := range ti {
		out = append(out, camera)
	}
	slices.Sort(out)
	return out
}
