package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type tableFile struct {
	Options `yaml:",inline"`
	Routes  []Route `yaml:"routes"`
}

// LoadTable reads a YAML route table from path.
//
//	login: login
//	landing: notes
//	routes:
//	  - name: login
//	    path: /login
//	    public: true
//	  - name: notes
//	    path: /notes
//	    requiresAuth: true
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML route table.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidRouteTable, err)
	}
	return NewTable(f.Routes, f.Options)
}
