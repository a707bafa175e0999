// Package transcription defines the speech-to-text provider interface and a
// factory registry for runtime-selectable backends.
//
// # Backends
//
//   - transcription/asr: a generic ASR HTTP endpoint taking a multipart upload
//     and answering with a JSON document
//   - transcription/openai: OpenAI Whisper through go-openai
//
// # Usage
//
//	p, err := transcription.New(transcription.Config{Provider: "asr"}, &asrCfg, log)
//	resp, err := p.Transcribe(ctx, transcription.Request{FileName: "downloads/x.ogg", Audio: data})
//	reply := resp.Text // Placeholder when the service returned no transcript
package transcription
