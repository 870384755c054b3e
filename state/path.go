package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kryonlabs/kryon-sub009/errors"
)

// segment is one step of a resolved path: an object key or an array
// index.
type segment struct {
	key   string
	index int
	isKey bool
}

func (s segment) String() string {
	if s.isKey {
		return s.key
	}
	return "[" + strconv.Itoa(s.index) + "]"
}

// parsePath splits a dotted path into segments. Object keys are plain
// identifiers between dots; array indices use bracket syntax:
// "user.items[2].name". A bare integer segment ("items.2") also
// resolves as an index, matching the loose form bundles may carry.
func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, errors.InvalidInput(errors.PhaseState, "empty state path")
	}

	var segs []segment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, errors.InvalidInput(errors.PhaseState,
				fmt.Sprintf("empty segment in path %q", path))
		}

		key := part
		var brackets []int
		for {
			open := strings.IndexByte(key, '[')
			if open < 0 {
				break
			}
			close := strings.IndexByte(key, ']')
			if close < open {
				return nil, errors.InvalidInput(errors.PhaseState,
					fmt.Sprintf("unbalanced brackets in path %q", path))
			}
			idx, err := strconv.Atoi(key[open+1 : close])
			if err != nil || idx < 0 {
				return nil, errors.InvalidInput(errors.PhaseState,
					fmt.Sprintf("bad array index in path %q", path))
			}
			brackets = append(brackets, idx)
			key = key[:open] + key[close+1:]
		}

		if key != "" {
			if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && len(brackets) == 0 {
				segs = append(segs, segment{index: idx})
			} else {
				segs = append(segs, segment{key: key, isKey: true})
			}
		} else if len(brackets) == 0 {
			return nil, errors.InvalidInput(errors.PhaseState,
				fmt.Sprintf("empty segment in path %q", path))
		}
		for _, idx := range brackets {
			segs = append(segs, segment{index: idx})
		}
	}
	return segs, nil
}

// pathPrefixes reports whether prefix is a whole-segment prefix of
// path (or equal to it). "user" prefixes "user.name" but not
// "username".
func pathPrefixes(prefix, path string) bool {
	if prefix == path {
		return true
	}
	return len(path) > len(prefix) &&
		strings.HasPrefix(path, prefix) &&
		(path[len(prefix)] == '.' || path[len(prefix)] == '[')
}
