package storage

import (
	"sort"
	"strings"
)

const (
	Success = "success"
	Failed  = "failed"
)

// Gomap is the key/value state machine fed by committed log entries.
// Commands are "SET key value", "DEL key", "GET key" and "KEYS prefix".
type Gomap map[string]string

func NewGomap(initCap int) *Gomap {
	gomap := Gomap(make(map[string]string, initCap))
	return &gomap
}

func (m *Gomap) Put(key, value string) {
	(*m)[key] = value
}

func (m *Gomap) Get(key string) (string, bool) {
	v, b := (*m)[key]
	return v, b
}

func (m *Gomap) Del(key string) {
	delete(*m, key)
}

// Prefix returns the keys starting with prefix, sorted.
func (m *Gomap) Prefix(prefix string) []string {
	result := make([]string, 0)
	for k := range *m {
		if k == "" {
			continue
		}
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	sort.Strings(result)
	return result
}

// ApplyCommand runs one committed command. Unknown or malformed commands
// are answered with Failed and leave the map unchanged, so every replica
// still ends in the same state.
func (m *Gomap) ApplyCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Failed
	}
	switch strings.ToUpper(fields[0]) {
	case "SET":
		if len(fields) < 3 {
			return Failed
		}
		m.Put(fields[1], strings.Join(fields[2:], " "))
		return Success
	case "DEL":
		if len(fields) != 2 {
			return Failed
		}
		m.Del(fields[1])
		return Success
	case "GET":
		if len(fields) != 2 {
			return Failed
		}
		v, ok := m.Get(fields[1])
		if !ok {
			return Failed
		}
		return v
	case "KEYS":
		prefix := ""
		if len(fields) > 1 {
			prefix = fields[1]
		}
		return strings.Join(m.Prefix(prefix), ",")
	default:
		return Failed
	}
}
