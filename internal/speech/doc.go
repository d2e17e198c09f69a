// Package speech holds the assistant's voice I/O: the Vosk transcriber
// that turns microphone PCM into finalized utterances, the piper TTS
// pipeline that renders responses, and the Session that keeps the two
// from hearing each other.
package speech
