package dedup

import (
	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
)

// mergeEnrich folds two events' Xattrs lists into one, applying the
// well-known-key union rules: a concrete xattr pair overwrites a
// same-keyed pair already present; the fid marker and the nested
// enrich-request map (requested xattr names, a Lustre marker, a
// symlink marker) union instead of overwriting. The result orders the
// fid pair first, then concrete pairs, then the enrich map with its
// xattrs entry before its lustre entry.
func mergeEnrich(a, b []rfs.Pair) []rfs.Pair {
	var fid *rfs.Value
	var enrichNames []rfs.Value
	var hasLustre, hasSymlink bool
	var others []rfs.Pair
	otherIdx := make(map[string]int)

	apply := func(pairs []rfs.Pair) {
		for _, pr := range pairs {
			switch pr.Key {
			case fsevent.FidKey:
				fid = pr.Value.Clone()
			case fsevent.EnrichNamespaceKey:
				if pr.Value == nil || pr.Value.Type != rfs.ValueTypeMap {
					continue
				}
				for _, inner := range pr.Value.Map {
					switch inner.Key {
					case fsevent.EnrichXattrsKey:
						if inner.Value != nil {
							enrichNames = append(enrichNames, inner.Value.Seq...)
						}
					case fsevent.EnrichLustreKey:
						hasLustre = true
					case fsevent.EnrichSymlinkKey:
						hasSymlink = true
					}
				}
			default:
				if idx, ok := otherIdx[pr.Key]; ok {
					others[idx] = rfs.Pair{Key: pr.Key, Value: pr.Value.Clone()}
				} else {
					otherIdx[pr.Key] = len(others)
					others = append(others, rfs.Pair{Key: pr.Key, Value: pr.Value.Clone()})
				}
			}
		}
	}
	apply(a)
	apply(b)

	out := make([]rfs.Pair, 0, len(others)+2)
	if fid != nil {
		out = append(out, rfs.Pair{Key: fsevent.FidKey, Value: fid})
	}
	out = append(out, others...)

	if len(enrichNames) > 0 || hasLustre || hasSymlink {
		var inner []rfs.Pair
		if len(enrichNames) > 0 {
			inner = append(inner, rfs.Pair{Key: fsevent.EnrichXattrsKey, Value: rfs.NewSequence(dedupStringValues(enrichNames))})
		}
		if hasLustre {
			inner = append(inner, rfs.Pair{Key: fsevent.EnrichLustreKey, Value: rfs.NewBoolean(true)})
		}
		if hasSymlink {
			inner = append(inner, rfs.Pair{Key: fsevent.EnrichSymlinkKey, Value: rfs.NewBoolean(true)})
		}
		out = append(out, rfs.Pair{Key: fsevent.EnrichNamespaceKey, Value: rfs.NewMap(inner)})
	}
	return out
}

func dedupStringValues(values []rfs.Value) []rfs.Value {
	seen := make(map[string]bool, len(values))
	out := make([]rfs.Value, 0, len(values))
	for _, v := range values {
		if v.Type == rfs.ValueTypeString {
			if seen[v.String] {
				continue
			}
			seen[v.String] = true
		}
		out = append(out, v)
	}
	return out
}
