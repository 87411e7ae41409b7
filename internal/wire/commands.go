package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/signalmesh/trafficctl/internal/junction"
)

// Command is one outbound newline-terminated line for the field
// controller.
type Command []byte

// PriorityCommand tells the controller to begin the beacon override
// for one lane.
func PriorityCommand(lane int) Command {
	return Command(fmt.Sprintf("PRIORITY:%d\n", lane))
}

// NextGreenCommand submits validated green durations for the upcoming
// cycle.
func NextGreenCommand(green [junction.Count]int) Command {
	parts := make([]string, len(green))
	for i, g := range green {
		parts[i] = strconv.Itoa(g)
	}
	return Command("NEXT_GREEN:" + strings.Join(parts, ",") + "\n")
}

// ExtendBeaconCommand resets the controller's override window to a
// full duration without changing lane.
func ExtendBeaconCommand() Command {
	return Command("EXTEND_BEACON\n")
}
