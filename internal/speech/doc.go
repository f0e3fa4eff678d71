// Package speech reads record text aloud.
//
// A Speaker turns text into audio and blocks until playback ends or its
// context is cancelled. CommandSpeaker drives the platform speech command
// (say on macOS, espeak-ng, espeak or spd-say elsewhere) and feeds the text
// on stdin. Player runs one playback at a time in the background; starting a
// new one or calling Stop cancels the previous playback.
package speech
