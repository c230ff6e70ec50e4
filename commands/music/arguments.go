package music

import (
	"fmt"
	"strconv"

	"emperror.dev/errors"
	"github.com/xf8b/xf8bot/command"
	core "github.com/xf8b/xf8bot/music"
)

var query = command.String("query", command.AtLeast(1))

// parseClamped parses an integer, clamping numbers too large for an int
// instead of rejecting them, so the range check reports them.
func parseClamped(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return v, nil
}

var volume = &command.Arg[int]{
	Name:  "volume",
	Index: command.Single(1),
	Parse: parseClamped,
	Valid: func(v int) bool {
		return v >= core.MinVolume && v <= core.MaxVolume
	},
	Message: func(raw string) string {
		v, err := parseClamped(raw)
		switch {
		case err != nil:
			return command.DefaultInvalidValueMessage
		case v > core.MaxVolume:
			return fmt.Sprintf("The maximum volume is %d!", core.MaxVolume)
		default:
			return fmt.Sprintf("The minimum volume is %d!", core.MinVolume)
		}
	},
}

var skipAmount = &command.Arg[int]{
	Name:     "amount",
	Index:    command.Single(1),
	Optional: true,
	Parse:    parseClamped,
	Valid:    func(v int) bool { return v >= 1 },
	Message: func(raw string) string {
		if _, err := parseClamped(raw); err != nil {
			return command.DefaultInvalidValueMessage
		}
		return "The amount of songs to skip must be at least 1!"
	},
}
