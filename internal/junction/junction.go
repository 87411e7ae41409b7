package junction

// Junction describes one of the four coordinated intersections and the
// road-network edges the field controller's sensors sit on.
type Junction struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	InEdge  string `json:"in_edge"`
	OutEdge string `json:"out_edge"`
}

// Count is the number of independently timed junctions.
const Count = 4

// Observation normalization maxima, shared with the trained policy.
const (
	MaxDensity = 50.0
	MaxHalting = 50.0
)

// Mapping is the static lane-index to junction table.
var Mapping = [Count]Junction{
	{ID: 0, Name: "J6", InEdge: "E1", OutEdge: "E6"},
	{ID: 1, Name: "J26", InEdge: "E15", OutEdge: "E16"},
	{ID: 2, Name: "J16", InEdge: "E8", OutEdge: "E13"},
	{ID: 3, Name: "J41", InEdge: "E22", OutEdge: "E23"},
}

// Pairs groups junctions that share a beacon corridor.
var Pairs = map[string][2]int{
	"A": {0, 1},
	"B": {2, 3},
}

// ValidLane reports whether lane is a usable junction index.
func ValidLane(lane int) bool {
	return lane >= 0 && lane < Count
}

// ByID returns the junction for a lane index.
func ByID(lane int) (Junction, bool) {
	if !ValidLane(lane) {
		return Junction{}, false
	}
	return Mapping[lane], true
}
