package testsupport

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

//go:embed testdata/scenario.json
var defaultFixture []byte

// Fixture describes the rows Seed creates.
type Fixture struct {
	// Password is shared by every seeded author.
	Password string `json:"password"`
	// Comments are the texts left on every poem, one per commenter.
	Comments []string        `json:"comments"`
	Authors  []AuthorFixture `json:"authors"`
}

type AuthorFixture struct {
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	Collection string        `json:"collection"`
	Poems      []PoemFixture `json:"poems"`
}

type PoemFixture struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DefaultFixture returns the embedded scenario: four authors with two poems
// and one collection each, and two comments per poem.
func DefaultFixture() Fixture {
	fx, err := ParseFixture(defaultFixture)
	if err != nil {
		panic(fmt.Sprintf("testsupport: embedded fixture: %v", err))
	}
	return fx
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("load fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and checks a fixture document.
func ParseFixture(data []byte) (Fixture, error) {
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	if len(fx.Authors) < 2 {
		return Fixture{}, fmt.Errorf("fixture needs at least two authors, got %d", len(fx.Authors))
	}
	if len(fx.Comments) >= len(fx.Authors) {
		return Fixture{}, fmt.Errorf("fixture has %d comments per poem but only %d other authors",
			len(fx.Comments), len(fx.Authors)-1)
	}
	return fx, nil
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
