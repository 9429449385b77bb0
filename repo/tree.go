package repo

import (
	"encoding/json"
	"fmt"
)

// tree is a JSON document addressed by path segments. It is not safe for
// concurrent use; the stores guard it.
type tree struct {
	root map[string]any
}

func newTree() *tree {
	return &tree{root: map[string]any{}}
}

// toJSONValue turns any value into the generic form encoding/json produces,
// so stored state never aliases the caller's.
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding value: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("error decoding value: %v", err)
	}
	return out, nil
}

func (t *tree) get(path []string, dst any) error {
	var node any = t.root
	for _, seg := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return ErrNotFound
		}
		node, ok = m[seg]
		if !ok {
			return ErrNotFound
		}
	}

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("error encoding node: %v", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error decoding node: %v", err)
	}
	return nil
}

// set stores value at path, creating intermediate objects. A nil value
// deletes the node.
func (t *tree) set(path []string, value any) {
	if value == nil {
		t.delete(path)
		return
	}
	m := t.root
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// delete removes the node at path and prunes parents left empty.
func (t *tree) delete(path []string) {
	parents := make([]map[string]any, 0, len(path))
	m := t.root
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			return
		}
		parents = append(parents, m)
		m = next
	}
	delete(m, path[len(path)-1])

	for i := len(parents) - 1; i >= 0 && len(m) == 0; i-- {
		delete(parents[i], path[i])
		m = parents[i]
	}
}
