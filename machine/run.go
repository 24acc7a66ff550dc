package machine

import "time"

// DefaultClockKHz is the throttle used when the caller did not request
// a specific clock frequency. The reference implementation slept 100
// microseconds between instructions; that corresponds to roughly 10
// kHz of instruction throughput, used here as the out-of-the-box pace.
const DefaultClockKHz = 10

// Run executes state until it halts, starting and stopping the
// keyboard's raw-mode reader around the loop (start_character_input /
// end_character_input in the reference runtime).
//
// clockFrequencyKHz throttles execution to roughly that many thousand
// instructions per second; zero selects DefaultClockKHz.
func Run(state *State, keyboard *Keyboard, clockFrequencyKHz int) error {
	if err := keyboard.Start(); err != nil {
		return err
	}
	defer keyboard.Stop()

	khz := clockFrequencyKHz
	if khz == 0 {
		khz = DefaultClockKHz
	}
	period := time.Duration(float64(time.Millisecond) / float64(khz))

	for !state.Halted {
		state.Step()
		if period > 0 {
			time.Sleep(period)
		}
	}
	return nil
}
