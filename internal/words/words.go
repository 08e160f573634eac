package words

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmptyPool = errors.New("word pool is empty")

var Default = []string{
	"cat", "spaceship", "castle", "tree", "car", "dog", "sun", "moon", "house", "bird",
	"fish", "flower", "star", "heart", "boat", "plane", "robot", "dragon", "crown", "key",
	"sword", "shield", "apple", "cake", "pizza", "guitar", "piano", "book", "camera", "phone",
}

type Pool struct {
	words []string
}

// NewPool drops blank entries and fails when nothing is left.
func NewPool(list []string) (*Pool, error) {
	p := &Pool{}
	for _, w := range list {
		if w = strings.TrimSpace(w); w != "" {
			p.words = append(p.words, w)
		}
	}
	if len(p.words) == 0 {
		return nil, ErrEmptyPool
	}
	return p, nil
}

func MustDefault() *Pool {
	p, err := NewPool(Default)
	if err != nil {
		panic(err)
	}
	return p
}

type file struct {
	Words []string `yaml:"words"`
}

// LoadFile reads a YAML document of the form `words: [a, b, c]`.
func LoadFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse word file %s: %w", path, err)
	}
	p, err := NewPool(f.Words)
	if err != nil {
		return nil, fmt.Errorf("word file %s: %w", path, err)
	}
	return p, nil
}

func (p *Pool) Pick() string {
	return p.words[rand.IntN(len(p.words))]
}

func (p *Pool) Len() int { return len(p.words) }
