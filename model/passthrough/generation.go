package passthrough

import "fmt"

// Generation selects how passthroughs created by a factory bind to their
// administrators. It is fixed when the factory is deployed and copied to every
// passthrough it creates.
type Generation uint8

const (
	// GenerationEmbedded factories take admins as create arguments and bake
	// a private copy into each passthrough.
	GenerationEmbedded Generation = 1
	// GenerationLinked factories store the admins themselves; passthroughs
	// hold a back-reference and resolve the admins on every read.
	GenerationLinked Generation = 2
)

func (g Generation) String() string {
	switch g {
	case GenerationEmbedded:
		return "embedded"
	case GenerationLinked:
		return "linked"
	default:
		return fmt.Sprintf("generation(%d)", uint8(g))
	}
}

// ParseGeneration accepts the names returned by String as well as "1"/"2".
func ParseGeneration(s string) (Generation, error) {
	switch s {
	case "embedded", "1", "gen1":
		return GenerationEmbedded, nil
	case "linked", "2", "gen2":
		return GenerationLinked, nil
	}
	return 0, fmt.Errorf("unknown factory generation %q", s)
}
