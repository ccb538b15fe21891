package board

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed maps/*.yaml
var builtinMaps embed.FS

// Definition is the YAML form of a map: owner bindings plus symbol rows.
type Definition struct {
	Name   string   `yaml:"name"`
	Owners []Owner  `yaml:"owners"`
	Rows   []string `yaml:"rows"`
}

// DefaultOwners are the three owners of the printed game.
func DefaultOwners() []Owner {
	return []Owner{
		{ID: "student", Name: "Студент", Symbol: "S", Reward: Reward{Type: RewardTrust, Amount: 1}},
		{ID: "cook", Name: "Повар", Symbol: "C", Reward: Reward{Type: RewardFood, Amount: 2}},
		{ID: "librarian", Name: "Библиотекарь", Symbol: "L", Reward: Reward{Type: RewardCard, Amount: 1}},
	}
}

// Default loads the embedded yard map
func Default() (*Board, error) {
	data, err := builtinMaps.ReadFile("maps/yard.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin map: %w", err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (*Board, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal map: %w", err)
	}
	owners := def.Owners
	if len(owners) == 0 {
		owners = DefaultOwners()
	}
	return New(def.Rows, owners)
}

// ParseTSV reads the tab separated map.txt format used by the printed game
// tooling: one row per line, one symbol per tab separated column.
func ParseTSV(r io.Reader, owners []Owner) (*Board, error) {
	var grid [][]string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" && len(grid) == 0 {
			continue
		}
		grid = append(grid, strings.Split(line, "\t"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read map: %w", err)
	}
	if owners == nil {
		owners = DefaultOwners()
	}
	return build(grid, owners)
}

// LoadFile loads a map by extension: .txt/.tsv as tab separated rows with
// the default owners, anything else as a YAML Definition.
func LoadFile(path string) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".tsv":
		return ParseTSV(f, nil)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return ParseYAML(data)
}
