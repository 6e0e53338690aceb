// Package macro records and replays desktop input sequences.
//
// # Concepts
//
// A Sequence is an ordered list of timestamped Events. Each event is one of
// MouseMove, MouseDown, MouseUp, KeyDown or KeyUp. Timestamps are seconds
// relative to the start of the recording and never decrease.
//
// # Recording
//
// A Recorder subscribes to one or more Sources. Sources report raw
// observations to the recorder through the Sink interface; the recorder
// timestamps them, tracks which modifiers are held, rebuilds combinations
// such as "ctrl+c" and appends the result to the sequence.
//
//	rec := macro.NewRecorder(session, []macro.Source{terminal})
//	if err := rec.Start(ctx); err != nil {
//	    return err
//	}
//	seq, err := rec.Wait()
//
// Recording ends when Stop is called, when the stop key (Escape by default)
// is pressed, or when the context is cancelled.
//
// # Playback
//
// A Player walks a sequence and reproduces each event through a Backend,
// sleeping between events for the recorded gap divided by the speed factor.
//
//	player := macro.NewPlayer(session, backend)
//	result, err := player.Play(ctx, seq, macro.DefaultPlayOptions())
//
// Playback can loop a fixed number of times and is cancelled with Stop.
// A backend reporting ErrFailSafe aborts playback immediately.
//
// # Session
//
// Session holds the state shared between recording and playback: the
// recording and playing flags, the completed-pass counter, the modifier
// tracker and the current sequence.
package macro
