// Command scribe runs the WAV transcription service and its companion tools.
//
//	scribe serve                 run the HTTP service (POST /transcribe, GET /healthz)
//	scribe transcribe file.wav   transcribe locally and print segments
//	scribe check                 verify the engine binary and models directory
//	scribe config init|show|validate
//
// Configuration is read from --config, ~/.config/scribe/config.toml, or
// ./scribe.toml, in that order.
package main
